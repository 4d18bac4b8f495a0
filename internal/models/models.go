package models

// ListingType is the kind of lodging. The values are the ones the API stores.
type ListingType string

const (
	TypeApartment ListingType = "Departamento"
	TypeHouse     ListingType = "Casa"
	TypeRoom      ListingType = "Habitación"
)

// ListingTypes lists the selectable types in display order.
var ListingTypes = []ListingType{TypeApartment, TypeHouse, TypeRoom}

// DefaultImage is what the host form is pre-filled with.
const DefaultImage = "https://picsum.photos/seed/new/400/300"

// Listing - a rentable unit as returned by /api/listings and /api/my_listings
type Listing struct {
	ID          int64       `json:"id"`
	OwnerID     *int64      `json:"owner_id,omitempty"`
	Title       string      `json:"title"`
	City        string      `json:"city"`
	Price       float64     `json:"price"`
	Type        ListingType `json:"type"`
	Image       string      `json:"image"`
	Description string      `json:"description"`
}

// Credentials - body of /auth/login and /auth/register
type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// NewListing - body of /api/create_listing. Price is always sent as a number.
type NewListing struct {
	Title       string      `json:"title"`
	City        string      `json:"city"`
	Price       float64     `json:"price"`
	Type        ListingType `json:"type"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
}

// ListingDraft - the host form as typed by the user, price still text
type ListingDraft struct {
	Title       string `validate:"required"`
	City        string `validate:"required"`
	Price       string `validate:"required"`
	Type        string `validate:"required,oneof=Departamento Casa Habitación"`
	Image       string
	Description string
}

// BookingRequest - body of /api/book
type BookingRequest struct {
	ListingID int64 `json:"listing_id"`
}

// BookingResponse - success body of /api/book
type BookingResponse struct {
	BookingID int64 `json:"booking_id"`
}

// TokenResponse - success body of /auth/login
type TokenResponse struct {
	Token string `json:"token"`
}

// CreateAck - success body of /api/create_listing
type CreateAck struct {
	ID int64 `json:"id"`
}

// ErrorResponse - body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}
