package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"time"

	"gopkg.in/yaml.v3"

	registrar "github.com/campus-sense/registrar-go"
	"github.com/campus-sense/registrar-go/catalog"
	"github.com/campus-sense/registrar-go/config"
	"github.com/campus-sense/registrar-go/notifier"
	"github.com/campus-sense/registrar-go/register"
	"github.com/campus-sense/registrar-go/repository"
	"github.com/campus-sense/registrar-go/seats"
	"github.com/campus-sense/registrar-go/server"
)

func main() {
	seedPath := flag.String("seed", "", "path to a yaml seed file loaded into the store at startup")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	go func() {
		<-sig
		log.Println("received interrupt, shutting down")
		cancel()
	}()

	cfg, err := config.ReadConfig()
	if err != nil {
		log.Panicf("failed to read config: %s", err)
	}

	store, err := repository.New(ctx, cfg.Database)
	if err != nil {
		log.Panicf("failed to create store: %s", err)
	}
	cached := repository.NewCached(store, time.Duration(cfg.Cache.TTLSeconds)*time.Second)

	if *seedPath != "" {
		if err := seed(ctx, store, *seedPath); err != nil {
			log.Panicf("failed to seed store: %s", err)
		}
	}

	ledger := seats.NewLedger()
	courses, err := store.ListCourses(ctx, registrar.CourseFilter{})
	if err != nil {
		log.Panicf("failed to list courses for ledger: %s", err)
	}
	for _, course := range courses {
		ledger.Load(course.Code, course.Seats)
	}
	log.Printf("seat ledger loaded with %d courses", len(courses))

	broker := notifier.NewBroker()
	defer broker.Close()
	publisher := notifier.NewMulti(notifier.NewLog(), broker)

	registerService := register.NewRegister(cached, ledger, publisher)
	catalogService := catalog.NewCatalog(cached, ledger)

	srv := server.NewServer(cfg.Server.Addr, registerService, catalogService)
	if err = srv.Start(ctx); err != nil {
		log.Panicf("Server failure: %s", err)
	}
}

type seedFile struct {
	Courses []struct {
		Code          string   `yaml:"code"`
		Title         string   `yaml:"title"`
		Department    string   `yaml:"department"`
		Level         int      `yaml:"level"`
		Days          []string `yaml:"days"`
		Start         string   `yaml:"start"`
		End           string   `yaml:"end"`
		Seats         uint     `yaml:"seats"`
		Prerequisites []string `yaml:"prerequisites"`
	} `yaml:"courses"`
	Students []struct {
		RollNumber string   `yaml:"roll_number"`
		Name       string   `yaml:"name"`
		Completed  []string `yaml:"completed"`
	} `yaml:"students"`
}

// seed loads a catalog and student roster into the store. Existing records
// with the same keys are left untouched.
func seed(ctx context.Context, store registrar.Store, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var file seedFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	for _, c := range file.Courses {
		var days registrar.DaySet
		for _, name := range c.Days {
			day, err := registrar.ParseDay(name)
			if err != nil {
				return fmt.Errorf("course %s: %w", c.Code, err)
			}
			days |= registrar.NewDaySet(day)
		}
		start, err := registrar.ParseClock(c.Start)
		if err != nil {
			return fmt.Errorf("course %s: %w", c.Code, err)
		}
		end, err := registrar.ParseClock(c.End)
		if err != nil {
			return fmt.Errorf("course %s: %w", c.Code, err)
		}
		slot, err := registrar.NewTimeSlot(days, start, end)
		if err != nil {
			return fmt.Errorf("course %s: %w", c.Code, err)
		}

		course := registrar.Course{
			Code:          c.Code,
			Title:         c.Title,
			Department:    c.Department,
			Level:         c.Level,
			Slot:          slot,
			Seats:         c.Seats,
			Prerequisites: c.Prerequisites,
		}
		if err := store.AddCourse(ctx, course); err != nil {
			if errors.Is(err, registrar.ErrDuplicateCourse) {
				continue
			}
			return fmt.Errorf("failed to seed course %s: %w", c.Code, err)
		}
		log.Printf("seeded course %s", c.Code)
	}

	for _, s := range file.Students {
		student := registrar.Student{
			RollNumber:             s.RollNumber,
			Name:                   s.Name,
			CompletedPrerequisites: s.Completed,
		}
		if _, err := store.FindStudent(ctx, s.RollNumber); err == nil {
			continue
		}
		if err := store.AddStudent(ctx, student); err != nil {
			return fmt.Errorf("failed to seed student %s: %w", s.RollNumber, err)
		}
		log.Printf("seeded student %s", s.RollNumber)
	}

	return nil
}
