package server

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	registrar "github.com/campus-sense/registrar-go"
)

type Server struct {
	registrationService registrar.RegistrationService
	catalogService      registrar.CatalogService
	addr                string
}

func NewServer(addr string, r registrar.RegistrationService, c registrar.CatalogService) Server {
	return Server{r, c, addr}
}

func (s Server) routes() *httprouter.Router {
	r := httprouter.New()

	r.GET("/ping", s.pingHandler())
	r.PUT("/register", s.registerHandler())
	r.PUT("/drop", s.dropHandler())
	r.POST("/conflicts", s.conflictsHandler())
	r.GET("/courses", s.listCoursesHandler())
	r.POST("/courses", s.addCourseHandler())
	r.PUT("/courses/:code", s.updateCourseHandler())
	r.GET("/courses/:code/seats", s.seatCountHandler())
	r.PUT("/courses/:code/seats", s.adjustSeatsHandler())
	r.GET("/students/:roll/courses", s.registeredCoursesHandler())

	return r
}

func (s Server) Start(ctx context.Context) error {
	srv := http.Server{Addr: s.addr, Handler: s.routes()}
	log.Printf("listening on %s", s.addr)

	// start server, respecting context cancelation
	errChan := make(chan error)
	go func() { errChan <- srv.ListenAndServe() }()
	select {
	case err := <-errChan:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		log.Println("gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Println("server shutdown complete")
	}

	return nil
}
