package domain

// Event names a domain event raised alongside the change signal. Events
// carry no payload; consumers reload what they need.
type Event string

const (
	EventNewChatMessage     Event = "new-chat-message"
	EventNewUserTicket      Event = "new-user-ticket"
	EventNewBookingCreated  Event = "new-booking-created"
	EventSessionTransferred Event = "session-transferred-to-backstage"
)

// Collection names the store key a collection is persisted under.
type Collection string

const (
	CollProducts         Collection = "products"
	CollMerchTickets     Collection = "merch_tickets"
	CollGuestTickets     Collection = "guest_tickets"
	CollSessions         Collection = "sessions"
	CollUserSessions     Collection = "user_sessions"
	CollGlobalBookings   Collection = "global_bookings"
	CollBackstageRecords Collection = "backstage_records"
	CollStaffTickets     Collection = "staff_tickets"
	CollChatMessages     Collection = "chat_messages"
	CollOfflineSales     Collection = "offline_sales"
	CollPoints           Collection = "points"
	CollPointsLedger     Collection = "points_ledger"
)

// Notification is what a committed transaction announces.
type Notification struct {
	Collections []Collection `json:"collections"`
	Events      []Event      `json:"events,omitempty"`
}
