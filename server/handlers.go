package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	registrar "github.com/campus-sense/registrar-go"
)

func (s Server) pingHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Println("Ping request received")

		if _, err := w.Write([]byte("OK")); err != nil {
			log.Printf("Error writing ping response: %s", err)
		}
	}
}

type RegistrationRequest struct {
	RollNumber string `json:"roll_number"`
	CourseCode string `json:"course_code"`
}

func (r RegistrationRequest) Valid() error {
	if r.RollNumber == "" {
		return errors.New("Roll number cannot be empty")
	}
	if r.CourseCode == "" {
		return errors.New("Course code cannot be empty")
	}
	return nil
}

func (s Server) registerHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Println("Register request received")

		var req RegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("error decoding register request: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		if err := req.Valid(); err != nil {
			log.Printf("register request invalid: %s", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.registrationService.Register(r.Context(), req.RollNumber, req.CourseCode); err != nil {
			log.Printf("registration failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]string{"status": "registered"})
		log.Printf("Register request succeeded: %s registered for %s", req.RollNumber, req.CourseCode)
	}
}

func (s Server) dropHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Println("Drop request received")

		var req RegistrationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("error decoding drop request: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		if err := req.Valid(); err != nil {
			log.Printf("drop request invalid: %s", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.registrationService.Drop(r.Context(), req.RollNumber, req.CourseCode); err != nil {
			log.Printf("drop failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "dropped"})
		log.Printf("Drop request succeeded: %s dropped %s", req.RollNumber, req.CourseCode)
	}
}

type ConflictRequest struct {
	RollNumber string             `json:"roll_number"`
	Slot       registrar.TimeSlot `json:"slot"`
}

func (r ConflictRequest) Valid() error {
	if r.RollNumber == "" {
		return errors.New("Roll number cannot be empty")
	}
	return r.Slot.Valid()
}

func (s Server) conflictsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var req ConflictRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("error decoding conflicts request: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		if err := req.Valid(); err != nil {
			log.Printf("conflicts request invalid: %s", err)
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		conflict, err := s.registrationService.CheckConflicts(r.Context(), req.RollNumber, req.Slot)
		if err != nil {
			log.Printf("conflict check failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"conflict": conflict})
	}
}

type AdjustSeatsRequest struct {
	Delta int `json:"delta"`
}

func (s Server) adjustSeatsHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		code := p.ByName("code")

		var req AdjustSeatsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			log.Printf("error decoding adjust seats request: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		seats, err := s.registrationService.AdjustSeats(r.Context(), code, req.Delta)
		if err != nil {
			log.Printf("seat adjustment failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"code": code, "seats": seats})
	}
}

func (s Server) listCoursesHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		filter, err := parseCourseFilter(r)
		if err != nil {
			log.Printf("invalid course filter: %s", err)
			http.Error(w, "Invalid filter", http.StatusBadRequest)
			return
		}

		courses, err := s.catalogService.ListCourses(r.Context(), filter)
		if err != nil {
			log.Printf("course listing failed: %s", err)
			writeError(w, err)
			return
		}

		if courses == nil {
			courses = []registrar.Course{}
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func (s Server) seatCountHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		code := p.ByName("code")

		seats, err := s.catalogService.SeatCount(r.Context(), code)
		if err != nil {
			log.Printf("seat lookup failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{"code": code, "seats": seats})
	}
}

func (s Server) addCourseHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		log.Println("Add course request received")

		var course registrar.Course
		if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
			log.Printf("error decoding course: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		if err := course.Valid(); err != nil {
			log.Printf("course invalid: %s", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.catalogService.AddCourse(r.Context(), course); err != nil {
			log.Printf("add course failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, course)
	}
}

func (s Server) updateCourseHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		var course registrar.Course
		if err := json.NewDecoder(r.Body).Decode(&course); err != nil {
			log.Printf("error decoding course: %s", err)
			http.Error(w, "Failed to parse request", http.StatusBadRequest)
			return
		}

		course.Code = p.ByName("code")
		if err := course.Valid(); err != nil {
			log.Printf("course invalid: %s", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		if err := s.catalogService.UpdateCourse(r.Context(), course); err != nil {
			log.Printf("update course failed: %s", err)
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, course)
	}
}

func (s Server) registeredCoursesHandler() httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		courses, err := s.registrationService.RegisteredCourses(r.Context(), p.ByName("roll"))
		if err != nil {
			log.Printf("registered course listing failed: %s", err)
			writeError(w, err)
			return
		}

		if courses == nil {
			courses = []registrar.Course{}
		}
		writeJSON(w, http.StatusOK, courses)
	}
}

func parseCourseFilter(r *http.Request) (registrar.CourseFilter, error) {
	var filter registrar.CourseFilter

	query := r.URL.Query()
	filter.Department = query.Get("department")

	if day := query.Get("day"); day != "" {
		parsed, err := registrar.ParseDay(day)
		if err != nil {
			return registrar.CourseFilter{}, err
		}
		filter.Day = &parsed
	}
	if at := query.Get("time"); at != "" {
		parsed, err := registrar.ParseClock(at)
		if err != nil {
			return registrar.CourseFilter{}, err
		}
		filter.At = &parsed
	}
	if seats := query.Get("seats"); seats != "" {
		parsed, err := strconv.ParseUint(seats, 10, 32)
		if err != nil {
			return registrar.CourseFilter{}, err
		}
		filter.MinSeats = uint(parsed)
	}

	return filter, nil
}

// writeError maps core error kinds to HTTP responses. Business rejections
// are 409s with a machine-readable reason so the UI can explain them.
func writeError(w http.ResponseWriter, err error) {
	var unmet *registrar.UnmetPrerequisitesError
	var conflict *registrar.ScheduleConflictError
	var unavailable *registrar.StoreUnavailableError

	switch {
	case errors.Is(err, registrar.ErrCourseNotFound), errors.Is(err, registrar.ErrStudentNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, registrar.ErrInvalidSlot):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, registrar.ErrAlreadyRegistered), errors.Is(err, registrar.ErrDuplicateCourse),
		errors.Is(err, registrar.ErrNotRegistered), errors.Is(err, registrar.ErrNoSeats),
		errors.Is(err, registrar.ErrNegativeSeats):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.As(err, &unmet):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "unmet prerequisites", "missing": unmet.Missing})
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, map[string]any{"error": "schedule conflict", "course": conflict.CourseCode})
	case errors.As(err, &unavailable):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "store unavailable"})
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("error writing response: %s", err)
	}
}
