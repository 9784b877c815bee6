package schedule

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// MemoryStore keeps the schedule in process. It backs local runs and tests.
type MemoryStore struct {
	mu          sync.RWMutex
	departments []string
	doctors     map[string]Doctor
	byDay       map[string][]Assignment
}

// NewMemoryStore creates an empty store serving departments, or
// DefaultDepartments when none are given.
func NewMemoryStore(departments []string) *MemoryStore {
	if len(departments) == 0 {
		departments = DefaultDepartments
	}
	return &MemoryStore{
		departments: append([]string(nil), departments...),
		doctors:     make(map[string]Doctor),
		byDay:       make(map[string][]Assignment),
	}
}

func dayKey(date time.Time, department string) string {
	return date.Format("2006-01-02") + "|" + department
}

// AddDoctor registers or replaces a contact.
func (s *MemoryStore) AddDoctor(d Doctor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doctors[d.Name] = d
}

// AddAssignment stores a duty. A missing phone is filled from the doctor list.
func (s *MemoryStore) AddAssignment(a Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a.DoctorPhone == "" {
		if d, ok := s.doctors[a.DoctorName]; ok {
			a.DoctorPhone = d.Phone
		}
	}
	key := dayKey(a.Date, a.Department)
	s.byDay[key] = append(s.byDay[key], a)
}

func (s *MemoryStore) FindAssignments(_ context.Context, date time.Time, department string) ([]Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.byDay[dayKey(date, department)]
	out := make([]Assignment, 0, len(stored))
	for _, a := range stored {
		a.Date = time.Date(a.Date.Year(), a.Date.Month(), a.Date.Day(), 0, 0, 0, 0, date.Location())
		out = append(out, a)
	}
	return out, nil
}

func (s *MemoryStore) FindDoctor(_ context.Context, name string) (*Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.doctors[name]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *MemoryStore) ListDepartments(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.departments...), nil
}

// Seed is the JSON bootstrap format for MemoryStore.
type Seed struct {
	Departments []string       `json:"departments"`
	Doctors     []SeedDoctor   `json:"doctors"`
	Schedules   []SeedSchedule `json:"schedules"`
}

type SeedDoctor struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
	Department  string `json:"department"`
}

type SeedSchedule struct {
	Date        string `json:"date"`
	Department  string `json:"department"`
	Doctor      string `json:"doctor"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	Description string `json:"description"`
	IsOnCall    bool   `json:"is_on_call"`
	Note        string `json:"note"`
}

// LoadSeed builds a MemoryStore from a JSON seed document. Dates are
// interpreted in loc.
func LoadSeed(r io.Reader, loc *time.Location) (*MemoryStore, error) {
	if loc == nil {
		loc = time.UTC
	}
	var seed Seed
	if err := json.NewDecoder(r).Decode(&seed); err != nil {
		return nil, fmt.Errorf("schedule: decode seed: %w", err)
	}

	store := NewMemoryStore(seed.Departments)
	for _, d := range seed.Doctors {
		store.AddDoctor(Doctor{Name: d.Name, Phone: d.PhoneNumber, Department: d.Department})
	}
	for i, sc := range seed.Schedules {
		date, err := time.ParseInLocation("2006-01-02", sc.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("schedule: seed schedule %d: %w", i, err)
		}
		w, err := ParseWindow(sc.StartTime, sc.EndTime)
		if err != nil {
			return nil, fmt.Errorf("schedule: seed schedule %d: %w", i, err)
		}
		dept := sc.Department
		if dept == "" {
			if d, ok := store.doctors[sc.Doctor]; ok {
				dept = d.Department
			}
		}
		store.AddAssignment(Assignment{
			Date:        date,
			Department:  dept,
			Window:      w,
			Description: sc.Description,
			DoctorName:  sc.Doctor,
			OnCall:      sc.IsOnCall,
			Note:        sc.Note,
		})
	}
	return store, nil
}

// LoadSeedFile is LoadSeed over a file path.
func LoadSeedFile(path string, loc *time.Location) (*MemoryStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("schedule: open seed: %w", err)
	}
	defer f.Close()
	return LoadSeed(f, loc)
}
