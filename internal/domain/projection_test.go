package domain_test

import (
	"testing"

	"github.com/robertarktes/venue-sync/internal/domain"
)

func TestProject(t *testing.T) {
	tests := []struct {
		status    domain.SessionStatus
		user      domain.UserSessionStatus
		booking   domain.BookingStatus
		backstage domain.BackstageStatus
	}{
		{domain.SessionBooked, domain.UserSessionUpcoming, domain.BookingBooked, ""},
		{domain.SessionCheckedIn, domain.UserSessionCheckedIn, domain.BookingCheckedIn, ""},
		{domain.SessionTransferred, domain.UserSessionCheckedIn, domain.BookingTransferred, domain.BackstageUpcoming},
		{domain.SessionRunning, domain.UserSessionRunning, domain.BookingTransferred, domain.BackstageRunning},
		{domain.SessionCompleted, domain.UserSessionCompleted, domain.BookingTransferred, domain.BackstageCompleted},
		{domain.SessionCancelled, domain.UserSessionCancelled, "", ""},
	}
	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			s := booked()
			s.Status = tt.status
			s.CustomerName = "Ada"
			s.Location = "Room 2"
			users, bookings, records := domain.Project([]domain.Session{s})

			if len(users) != 1 || users[0].Status != tt.user || users[0].ID != s.ID {
				t.Fatalf("user view %+v", users)
			}
			if tt.booking == "" {
				if len(bookings) != 0 {
					t.Fatalf("expected no booking, got %+v", bookings)
				}
			} else if len(bookings) != 1 || bookings[0].Status != tt.booking || bookings[0].CustomerName != "Ada" {
				t.Fatalf("booking view %+v", bookings)
			}
			if tt.backstage == "" {
				if len(records) != 0 {
					t.Fatalf("expected no backstage record, got %+v", records)
				}
			} else if len(records) != 1 || records[0].Status != tt.backstage || records[0].People != s.Guests || records[0].Location != "Room 2" {
				t.Fatalf("backstage view %+v", records)
			}
		})
	}
}
