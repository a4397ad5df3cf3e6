package models

import (
	"time"
)

// PropertyType mirrors the property_type enum in Postgres.
type PropertyType string

const (
	PropertyTypeRooms     PropertyType = "Rooms"
	PropertyTypeTinyhouse PropertyType = "Tinyhouse"
	PropertyTypeApartment PropertyType = "Apartment"
	PropertyTypeVilla     PropertyType = "Villa"
	PropertyTypeTownhouse PropertyType = "Townhouse"
	PropertyTypeCottage   PropertyType = "Cottage"
)

func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeRooms, PropertyTypeTinyhouse, PropertyTypeApartment,
		PropertyTypeVilla, PropertyTypeTownhouse, PropertyTypeCottage:
		return true
	}
	return false
}

// ApplicationStatus is Pending until a manager decides. Approved and Denied
// are terminal.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "Pending"
	ApplicationApproved ApplicationStatus = "Approved"
	ApplicationDenied   ApplicationStatus = "Denied"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationApproved, ApplicationDenied:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending       PaymentStatus = "Pending"
	PaymentPaid          PaymentStatus = "Paid"
	PaymentPartiallyPaid PaymentStatus = "PartiallyPaid"
	PaymentOverdue       PaymentStatus = "Overdue"
)

// Manager lists properties. CognitoID is the subject issued by the
// identity provider and is the key every other table references.
type Manager struct {
	ID          int64  `json:"id"`
	CognitoID   string `json:"cognitoId"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
}

type Tenant struct {
	ID          int64      `json:"id"`
	CognitoID   string     `json:"cognitoId"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phoneNumber"`
	Favorites   []Property `json:"favorites,omitempty"`
}

type Coordinates struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Location is stored with a geography(Point, 4326) column. Geocoded is false
// when the address lookup found nothing and the point defaulted to (0,0).
type Location struct {
	ID          int64       `json:"id"`
	Address     string      `json:"address"`
	City        string      `json:"city"`
	State       string      `json:"state"`
	Country     string      `json:"country"`
	PostalCode  string      `json:"postalCode"`
	Coordinates Coordinates `json:"coordinates"`
	Geocoded    bool        `json:"geocoded"`
}

type Property struct {
	ID                int64        `json:"id"`
	Name              string       `json:"name"`
	Description       string       `json:"description"`
	PricePerMonth     float64      `json:"pricePerMonth"`
	SecurityDeposit   float64      `json:"securityDeposit"`
	ApplicationFee    float64      `json:"applicationFee"`
	PhotoURLs         []string     `json:"photoUrls"`
	Amenities         []string     `json:"amenities"`
	Highlights        []string     `json:"highlights"`
	IsPetsAllowed     bool         `json:"isPetsAllowed"`
	IsParkingIncluded bool         `json:"isParkingIncluded"`
	Beds              int          `json:"beds"`
	Baths             float64      `json:"baths"`
	SquareFeet        int          `json:"squareFeet"`
	PropertyType      PropertyType `json:"propertyType"`
	PostedDate        time.Time    `json:"postedDate"`
	AverageRating     *float64     `json:"averageRating"`
	NumberOfReviews   *int         `json:"numberOfReviews"`
	LocationID        int64        `json:"locationId"`
	ManagerCognitoID  string       `json:"managerCognitoId"`

	// Address is the location's street address, filled in only where a
	// response flattens it onto the property (application lists).
	Address  string    `json:"address,omitempty"`
	Location *Location `json:"location,omitempty"`
	Manager  *Manager  `json:"manager,omitempty"`
}

type Lease struct {
	ID              int64     `json:"id"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Rent            float64   `json:"rent"`
	Deposit         float64   `json:"deposit"`
	PropertyID      int64     `json:"propertyId"`
	TenantCognitoID string    `json:"tenantCognitoId"`

	Tenant          *Tenant    `json:"tenant,omitempty"`
	Property        *Property  `json:"property,omitempty"`
	NextPaymentDate *time.Time `json:"nextPaymentDate,omitempty"`
}

type Application struct {
	ID              int64             `json:"id"`
	ApplicationDate time.Time         `json:"applicationDate"`
	Status          ApplicationStatus `json:"status"`
	PropertyID      int64             `json:"propertyId"`
	TenantCognitoID string            `json:"tenantCognitoId"`
	Name            string            `json:"name"`
	Email           string            `json:"email"`
	PhoneNumber     string            `json:"phoneNumber"`
	Message         *string           `json:"message"`
	LeaseID         *int64            `json:"leaseId"`

	Property *Property `json:"property,omitempty"`
	Tenant   *Tenant   `json:"tenant,omitempty"`
	Manager  *Manager  `json:"manager,omitempty"`
	Lease    *Lease    `json:"lease"`
}

// Payment is read-only here; rows are produced by billing elsewhere.
type Payment struct {
	ID            int64         `json:"id"`
	AmountDue     float64       `json:"amountDue"`
	AmountPaid    float64       `json:"amountPaid"`
	DueDate       time.Time     `json:"dueDate"`
	PaymentDate   *time.Time    `json:"paymentDate"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	LeaseID       int64         `json:"leaseId"`
}

// PropertyFilter carries the optional listing search filters. A nil pointer
// or empty slice means the filter was not supplied.
type PropertyFilter struct {
	FavoriteIDs   []int64
	PriceMin      *float64
	PriceMax      *float64
	Beds          *int
	Baths         *float64
	PropertyType  PropertyType
	SquareFeetMin *int
	SquareFeetMax *int
	Amenities     []string
	AvailableFrom *time.Time
	Latitude      *float64
	Longitude     *float64
}

// NewApplication is what a tenant submits. ApplicationDate is recorded on
// the application as given; the provisional lease always starts at
// LeaseStart, the server's clock at submission.
type NewApplication struct {
	PropertyID      int64
	TenantCognitoID string
	Name            string
	Email           string
	PhoneNumber     string
	Message         *string
	ApplicationDate time.Time
	LeaseStart      time.Time
}

// ApplicationFilter scopes an application listing. UserType is "tenant" or
// "manager"; both fields empty means no scoping.
type ApplicationFilter struct {
	UserID   string
	UserType string
}
