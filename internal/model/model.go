package model

import "time"

type Role string

const (
	RoleClient Role = "Client"
	RoleAgent  Role = "Agent"
)

func (r Role) Valid() bool { return r == RoleClient || r == RoleAgent }

type User struct {
	ID           string    `dynamodbav:"UserID" json:"userId"`
	Email        string    `dynamodbav:"Email" json:"email"`
	PasswordHash string    `dynamodbav:"PasswordHash" json:"-"`
	Name         string    `dynamodbav:"Name" json:"name"`
	Role         Role      `dynamodbav:"Role" json:"role"`
	Verified     bool      `dynamodbav:"IsVerified" json:"isVerified"`
	CreatedAt    time.Time `dynamodbav:"CreationDate" json:"createdAt"`
	UpdatedAt    time.Time `dynamodbav:"LastUpdated" json:"updatedAt"`
}

// EmailClaim reserves an address in its own table. Its conditional put is
// what enforces email uniqueness; never check uniqueness by scanning users.
type EmailClaim struct {
	Email  string `dynamodbav:"Email" json:"email"`
	UserID string `dynamodbav:"UserID" json:"userId"`
}

type ListingStatus string

const (
	ListingUnassigned  ListingStatus = "Unassigned"
	ListingClaimed     ListingStatus = "Claimed"
	ListingUnderReview ListingStatus = "UnderReview"
	ListingActive      ListingStatus = "Active"
	ListingSold        ListingStatus = "Sold"
	ListingInactive    ListingStatus = "Inactive"
)

// Property is a listing. AgentID empty means unassigned; the pair
// (AgentID set, Status != Unassigned) moves together, and only ever via a
// conditional write.
type Property struct {
	ID            string        `dynamodbav:"PropertyID" json:"propertyId"`
	OwnerID       string        `dynamodbav:"OwnerID" json:"ownerId"`
	AgentID       string        `dynamodbav:"ListingAgentID,omitempty" json:"listingAgentId,omitempty"`
	Status        ListingStatus `dynamodbav:"Status" json:"status"`
	Title         string        `dynamodbav:"Title" json:"title"`
	Description   string        `dynamodbav:"Description" json:"description"`
	Price         float64       `dynamodbav:"Price" json:"price"`
	Address       string        `dynamodbav:"Address" json:"address"`
	City          string        `dynamodbav:"City" json:"city"`
	State         string        `dynamodbav:"State" json:"state,omitempty"`
	PostalCode    string        `dynamodbav:"PostalCode" json:"postalCode,omitempty"`
	Country       string        `dynamodbav:"Country" json:"country,omitempty"`
	PropertyType  string        `dynamodbav:"PropertyType" json:"propertyType"`
	Bedrooms      int           `dynamodbav:"Bedrooms" json:"bedrooms"`
	Bathrooms     float64       `dynamodbav:"Bathrooms" json:"bathrooms"`
	SquareFootage float64       `dynamodbav:"SquareFootage" json:"squareFootage"`
	MediaKeys     []string      `dynamodbav:"ImageS3Keys" json:"imageKeys"`
	MediaURLs     []string      `dynamodbav:"-" json:"imageUrls,omitempty"`
	CreatedAt     time.Time     `dynamodbav:"CreationDate" json:"createdAt"`
	UpdatedAt     time.Time     `dynamodbav:"LastUpdated" json:"updatedAt"`
}

func (p *Property) Unassigned() bool { return p.AgentID == "" }

type AppointmentStatus string

const (
	AppointmentRequested AppointmentStatus = "Requested"
	AppointmentConfirmed AppointmentStatus = "Confirmed"
	AppointmentCancelled AppointmentStatus = "Cancelled"
	AppointmentCompleted AppointmentStatus = "Completed"
)

type Appointment struct {
	ID         string            `dynamodbav:"AppointmentID" json:"appointmentId"`
	PropertyID string            `dynamodbav:"PropertyID" json:"propertyId"`
	ClientID   string            `dynamodbav:"ClientID" json:"clientId"`
	AgentID    string            `dynamodbav:"AgentID,omitempty" json:"agentId,omitempty"`
	When       time.Time         `dynamodbav:"RequestedDateTime" json:"requestedDateTime"`
	Status     AppointmentStatus `dynamodbav:"Status" json:"status"`
	Notes      string            `dynamodbav:"Notes" json:"notes,omitempty"`
	CreatedAt  time.Time         `dynamodbav:"CreationDate" json:"createdAt"`
	UpdatedAt  time.Time         `dynamodbav:"LastUpdated" json:"updatedAt"`
}

type RefreshToken struct {
	TokenHash string    `dynamodbav:"TokenHash" json:"-"`
	UserID    string    `dynamodbav:"UserID" json:"-"`
	ExpiresAt time.Time `dynamodbav:"ExpiresAt" json:"-"`
	Revoked   bool      `dynamodbav:"Revoked" json:"-"`
	CreatedAt time.Time `dynamodbav:"CreationDate" json:"-"`
}
