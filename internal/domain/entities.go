package domain

import "time"

type Product struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Image      string  `json:"image,omitempty"`
	PointPrice int     `json:"point_price"`
	Price      float64 `json:"price"`
	// Stock is the absolute stock counter. Nil means unlimited.
	Stock    *int   `json:"stock"`
	OnShelf  bool   `json:"on_shelf"`
	Category string `json:"category,omitempty"`
}

type RedeemMethod string

const (
	RedeemByPoints   RedeemMethod = "POINTS"
	RedeemByPurchase RedeemMethod = "PURCHASE"
)

func (m RedeemMethod) Valid() bool {
	return m == RedeemByPoints || m == RedeemByPurchase
}

type MerchStatus string

const (
	MerchPending  MerchStatus = "PENDING"
	MerchRedeemed MerchStatus = "REDEEMED"
	MerchRefunded MerchStatus = "REFUNDED"
)

// MerchTicket is one claim against a Product.
type MerchTicket struct {
	ID          string       `json:"id"`
	ProductID   string       `json:"product_id"`
	ProductName string       `json:"product_name"`
	Quantity    int          `json:"quantity"`
	Method      RedeemMethod `json:"method"`
	Status      MerchStatus  `json:"status"`
	PointsSpent int          `json:"points_spent,omitempty"`
	Amount      float64      `json:"amount,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Store       string       `json:"store"`
}

type GuestTicketStatus string

const (
	GuestTicketPending GuestTicketStatus = "PENDING"
	GuestTicketUsed    GuestTicketStatus = "USED"
	GuestTicketExpired GuestTicketStatus = "EXPIRED"
)

const (
	TagGift     = "gift"
	TagGroupBuy = "group-buy"
	TagPaid     = "paid"
)

// GuestTicket is an admission voucher covering People guests for one visit.
type GuestTicket struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	People     int               `json:"people"`
	AcquiredAt time.Time         `json:"acquired_at"`
	ExpiresAt  *time.Time        `json:"expires_at,omitempty"`
	Store      string            `json:"store"`
	Status     GuestTicketStatus `json:"status"`
	Tags       []string          `json:"tags"`
	Price      float64           `json:"price,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
}

func (t GuestTicket) HasTag(tag string) bool {
	for _, v := range t.Tags {
		if v == tag {
			return true
		}
	}
	return false
}

// StaffTicket is a group-buy code generated by staff. A guest redeems the
// code once, which creates a PENDING GuestTicket.
type StaffTicket struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	People     int        `json:"people"`
	Store      string     `json:"store"`
	CreatedAt  time.Time  `json:"created_at"`
	RedeemedAt *time.Time `json:"redeemed_at,omitempty"`
	TicketID   string     `json:"ticket_id,omitempty"`
}

type ChatRole string

const (
	ChatFromGuest ChatRole = "guest"
	ChatFromStaff ChatRole = "staff"
)

type ChatMessage struct {
	ID     string    `json:"id"`
	From   ChatRole  `json:"from"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// OfflineSale is a counter sale recorded by staff outside the guest app.
type OfflineSale struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id,omitempty"`
	Item      string    `json:"item"`
	Quantity  int       `json:"quantity"`
	Amount    float64   `json:"amount"`
	Store     string    `json:"store"`
	SoldAt    time.Time `json:"sold_at"`
}

type PointsReason string

const (
	PointsEarnedVisit  PointsReason = "visit"
	PointsSpentMerch   PointsReason = "merch"
	PointsManualAdjust PointsReason = "adjust"
)

// PointsEntry is one delta applied to the points balance.
type PointsEntry struct {
	ID        string       `json:"id"`
	Delta     int          `json:"delta"`
	Reason    PointsReason `json:"reason"`
	Ref       string       `json:"ref"`
	CreatedAt time.Time    `json:"created_at"`
}
