package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/catalog"
	"github.com/campus-sense/registrar-go/notifier"
	"github.com/campus-sense/registrar-go/register"
	"github.com/campus-sense/registrar-go/repository"
	"github.com/campus-sense/registrar-go/seats"
)

func testServer(t *testing.T) (*httptest.Server, *repository.MemoryStore) {
	t.Helper()
	ctx := context.Background()

	store := repository.NewMemoryStore()

	start, err := registrar.ParseClock("10:00")
	require.NoError(t, err)
	end, err := registrar.ParseClock("11:30")
	require.NoError(t, err)
	slot, err := registrar.NewTimeSlot(registrar.NewDaySet(time.Monday, time.Wednesday), start, end)
	require.NoError(t, err)

	require.NoError(t, store.AddCourse(ctx, registrar.Course{
		Code: "CS101", Title: "Intro to Computing", Department: "CS", Level: 100,
		Slot: slot, Seats: 1,
	}))
	require.NoError(t, store.AddStudent(ctx, registrar.Student{RollNumber: "S1", Name: "Asha"}))
	require.NoError(t, store.AddStudent(ctx, registrar.Student{RollNumber: "S2", Name: "Ben"}))

	ledger := seats.NewLedger()
	ledger.Load("CS101", 1)

	srv := NewServer(":0", register.NewRegister(store, ledger, notifier.NewNoop()), catalog.NewCatalog(store, ledger))

	ts := httptest.NewServer(srv.routes())
	t.Cleanup(ts.Close)
	return ts, store
}

func doJSON(t *testing.T, method, url, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return res
}

func TestPing(t *testing.T) {
	ts, _ := testServer(t)

	res, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestRegisterEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// the seat is gone, the next student is rejected
	res = doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S2","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	// registering twice is rejected
	res = doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)
}

func TestRegisterEndpoint_BadRequest(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"","course_code":""}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doJSON(t, http.MethodPut, ts.URL+"/register", `not json`)
	defer res.Body.Close()
	require.Equal(t, http.StatusBadRequest, res.StatusCode)

	res = doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"ghost","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestDropEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/drop", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res = doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = doJSON(t, http.MethodPut, ts.URL+"/drop", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
}

func TestConflictsEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res = doJSON(t, http.MethodPost, ts.URL+"/conflicts",
		`{"roll_number":"S1","slot":{"days":["Mon"],"start":"10:30","end":"12:00"}}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]bool
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.True(t, body["conflict"])

	res = doJSON(t, http.MethodPost, ts.URL+"/conflicts",
		`{"roll_number":"S1","slot":{"days":["Tue"],"start":"10:30","end":"12:00"}}`)
	defer res.Body.Close()
	var clear map[string]bool
	require.NoError(t, json.NewDecoder(res.Body).Decode(&clear))
	require.False(t, clear["conflict"])
}

func TestAdjustSeatsEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/courses/CS101/seats", `{"delta":4}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Code  string `json:"code"`
		Seats uint   `json:"seats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, "CS101", body.Code)
	require.Equal(t, uint(5), body.Seats)

	res = doJSON(t, http.MethodPut, ts.URL+"/courses/CS101/seats", `{"delta":-10}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res = doJSON(t, http.MethodPut, ts.URL+"/courses/CS999/seats", `{"delta":1}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestSeatCountEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res, err := http.Get(ts.URL + "/courses/CS101/seats")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body struct {
		Seats uint `json:"seats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, uint(1), body.Seats)
}

func TestCourseCatalogEndpoints(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPost, ts.URL+"/courses",
		`{"code":"MA201","title":"Linear Algebra","department":"MA","level":200,`+
			`"slot":{"days":["Tue","Thu"],"start":"09:00","end":"10:30"},"seats":25}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	// duplicate code rejected
	res = doJSON(t, http.MethodPost, ts.URL+"/courses",
		`{"code":"MA201","title":"Linear Algebra","department":"MA","level":200,`+
			`"slot":{"days":["Tue"],"start":"09:00","end":"10:30"},"seats":25}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusConflict, res.StatusCode)

	res, err := http.Get(ts.URL + "/courses?department=MA")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var courses []registrar.Course
	require.NoError(t, json.NewDecoder(res.Body).Decode(&courses))
	require.Len(t, courses, 1)
	require.Equal(t, "MA201", courses[0].Code)

	res = doJSON(t, http.MethodPut, ts.URL+"/courses/MA201",
		`{"title":"Linear Algebra II","department":"MA","level":200,`+
			`"slot":{"days":["Tue","Thu"],"start":"09:00","end":"10:30"},"seats":999}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	// seat count survives the edit
	res, err = http.Get(ts.URL + "/courses/MA201/seats")
	require.NoError(t, err)
	defer res.Body.Close()
	var seatsBody struct {
		Seats uint `json:"seats"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&seatsBody))
	require.Equal(t, uint(25), seatsBody.Seats)
}

func TestRegisteredCoursesEndpoint(t *testing.T) {
	ts, _ := testServer(t)

	res := doJSON(t, http.MethodPut, ts.URL+"/register", `{"roll_number":"S1","course_code":"CS101"}`)
	defer res.Body.Close()
	require.Equal(t, http.StatusCreated, res.StatusCode)

	res, err := http.Get(ts.URL + "/students/S1/courses")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var courses []registrar.Course
	require.NoError(t, json.NewDecoder(res.Body).Decode(&courses))
	require.Len(t, courses, 1)
	require.Equal(t, "CS101", courses[0].Code)

	res, err = http.Get(ts.URL + "/students/ghost/courses")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}
