// Package tables filters and pages the admin lists on the client side.
package tables

import (
	"strconv"
	"strings"

	"frenchdriver/internal/domain/models"
)

const (
	PageSize  = 10
	StatusAll = "ALL"
)

type Filter struct {
	Search string
	Status string
}

// State is a table's filter and current page. Changing the filter goes back
// to the first page.
type State struct {
	Filter Filter
	Page   int
}

func (s *State) SetFilter(f Filter) {
	if f != s.Filter {
		s.Filter = f
		s.Page = 1
	}
}

func (s *State) SetPage(p int) {
	s.Page = p
}

type PageInfo struct {
	Page       int
	TotalPages int
	Total      int
}

// Paginate returns page p (1-based, clamped) of rows.
func Paginate[T any](rows []T, p int) ([]T, PageInfo) {
	info := PageInfo{Total: len(rows), TotalPages: (len(rows) + PageSize - 1) / PageSize}
	if info.TotalPages == 0 {
		info.TotalPages = 1
	}
	info.Page = min(max(p, 1), info.TotalPages)
	start := (info.Page - 1) * PageSize
	end := min(start+PageSize, len(rows))
	return rows[start:end], info
}

func contains(needle string, fields ...string) bool {
	if needle == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), needle) {
			return true
		}
	}
	return false
}

// MatchBooking applies the search box and the status select.
func MatchBooking(b models.Booking, f Filter) bool {
	status := strings.ToUpper(strings.TrimSpace(f.Status))
	if status != "" && status != StatusAll && string(b.Status) != status {
		return false
	}
	fields := []string{b.ConfirmationNumber, strconv.FormatInt(b.ID, 10)}
	if b.User != nil {
		fields = append(fields, b.User.Email, b.User.FirstName, b.User.LastName, b.User.PhoneNumber)
	}
	return contains(strings.ToLower(strings.TrimSpace(f.Search)), fields...)
}

func MatchDriver(d models.Driver, search string) bool {
	return contains(strings.ToLower(strings.TrimSpace(search)),
		d.Name, d.PhoneNumber, d.Email, d.LicenseNumber)
}

func Bookings(list []models.Booking, s State) ([]models.Booking, PageInfo) {
	out := make([]models.Booking, 0, len(list))
	for _, b := range list {
		if MatchBooking(b, s.Filter) {
			out = append(out, b)
		}
	}
	return Paginate(out, s.Page)
}

func Drivers(list []models.Driver, s State) ([]models.Driver, PageInfo) {
	out := make([]models.Driver, 0, len(list))
	for _, d := range list {
		if MatchDriver(d, s.Filter.Search) {
			out = append(out, d)
		}
	}
	return Paginate(out, s.Page)
}
