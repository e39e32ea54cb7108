package domain

type UserSessionStatus string

const (
	UserSessionUpcoming  UserSessionStatus = "UPCOMING"
	UserSessionCheckedIn UserSessionStatus = "CHECKED_IN"
	UserSessionRunning   UserSessionStatus = "RUNNING"
	UserSessionCompleted UserSessionStatus = "COMPLETED"
	UserSessionCancelled UserSessionStatus = "CANCELLED"
)

type BookingStatus string

const (
	BookingBooked      BookingStatus = "BOOKED"
	BookingCheckedIn   BookingStatus = "CHECKED_IN"
	BookingTransferred BookingStatus = "TRANSFERRED"
)

type BackstageStatus string

const (
	BackstageUpcoming  BackstageStatus = "UPCOMING"
	BackstageRunning   BackstageStatus = "RUNNING"
	BackstageCompleted BackstageStatus = "COMPLETED"
)

// UserSession is the guest mini-app view of a Session.
type UserSession struct {
	ID            string            `json:"id"`
	DateLabel     string            `json:"date_label"`
	Date          string            `json:"date"`
	Time          string            `json:"time"`
	Guests        int               `json:"guests"`
	Store         string            `json:"store"`
	QRCode        string            `json:"qr_code"`
	TotalPrice    float64           `json:"total_price"`
	Status        UserSessionStatus `json:"status"`
	TicketCount   int               `json:"ticket_count"`
	PointsClaimed bool              `json:"points_claimed"`
}

// GlobalBooking is the front-of-house staff view of a Session.
type GlobalBooking struct {
	ID           string        `json:"id"`
	Time         string        `json:"time"`
	DateLabel    string        `json:"date_label"`
	Guests       int           `json:"guests"`
	CheckInCount int           `json:"check_in_count"`
	Status       BookingStatus `json:"status"`
	Store        string        `json:"store"`
	CustomerName string        `json:"customer_name"`
}

// BackstageRecord is the on-site view. It exists once the booking has been
// transferred.
type BackstageRecord struct {
	ID           string          `json:"id"`
	Time         string          `json:"time"`
	Location     string          `json:"location"`
	People       int             `json:"people"`
	Status       BackstageStatus `json:"status"`
	CustomerName string          `json:"customer_name"`
}

func (s Session) GuestView() UserSession {
	v := UserSession{
		ID:            s.ID,
		DateLabel:     s.DateLabel,
		Date:          s.Date,
		Time:          s.Time,
		Guests:        s.Guests,
		Store:         s.Store,
		QRCode:        s.QRCode,
		TotalPrice:    s.TotalPrice,
		TicketCount:   s.TicketCount,
		PointsClaimed: s.PointsClaimed,
	}
	switch s.Status {
	case SessionBooked:
		v.Status = UserSessionUpcoming
	case SessionCheckedIn, SessionTransferred:
		v.Status = UserSessionCheckedIn
	case SessionRunning:
		v.Status = UserSessionRunning
	case SessionCompleted:
		v.Status = UserSessionCompleted
	case SessionCancelled:
		v.Status = UserSessionCancelled
	}
	return v
}

// StaffView returns false for cancelled sessions, which leave the booking list.
func (s Session) StaffView() (GlobalBooking, bool) {
	v := GlobalBooking{
		ID:           s.ID,
		Time:         s.Time,
		DateLabel:    s.DateLabel,
		Guests:       s.Guests,
		CheckInCount: s.CheckInCount,
		Store:        s.Store,
		CustomerName: s.CustomerName,
	}
	switch s.Status {
	case SessionBooked:
		v.Status = BookingBooked
	case SessionCheckedIn:
		v.Status = BookingCheckedIn
	case SessionTransferred, SessionRunning, SessionCompleted:
		v.Status = BookingTransferred
	default:
		return GlobalBooking{}, false
	}
	return v, true
}

func (s Session) BackstageView() (BackstageRecord, bool) {
	v := BackstageRecord{
		ID:           s.ID,
		Time:         s.Time,
		Location:     s.Location,
		People:       s.Guests,
		CustomerName: s.CustomerName,
	}
	switch s.Status {
	case SessionTransferred:
		v.Status = BackstageUpcoming
	case SessionRunning:
		v.Status = BackstageRunning
	case SessionCompleted:
		v.Status = BackstageCompleted
	default:
		return BackstageRecord{}, false
	}
	return v, true
}

// Project renders all three views of sessions, preserving order.
func Project(sessions []Session) ([]UserSession, []GlobalBooking, []BackstageRecord) {
	users := make([]UserSession, 0, len(sessions))
	bookings := make([]GlobalBooking, 0, len(sessions))
	records := make([]BackstageRecord, 0)
	for _, s := range sessions {
		users = append(users, s.GuestView())
		if b, ok := s.StaffView(); ok {
			bookings = append(bookings, b)
		}
		if r, ok := s.BackstageView(); ok {
			records = append(records, r)
		}
	}
	return users, bookings, records
}
