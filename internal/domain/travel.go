package domain

type FlightSearch struct {
	Origin        string // IATA
	Destination   string // IATA
	DepartureDate string // YYYY-MM-DD
	ReturnDate    string // optional
	Adults        int
	Children      int
	Infants       int
	TravelClass   string // ECONOMY|PREMIUM_ECONOMY|BUSINESS|FIRST
	NonStop       bool
	Currency      string
	MaxPrice      int
	Max           int
}

type DestinationSearch struct {
	Origin        string
	DepartureDate string // optional, date or range
	MaxPrice      int
	OneWay        bool
}

type FlightDateSearch struct {
	Origin        string
	Destination   string
	DepartureDate string // optional
	OneWay        bool
}

type FlightStatusQuery struct {
	CarrierCode   string
	FlightNumber  string
	DepartureDate string
}

type HotelCitySearch struct {
	CityCode   string
	Radius     int
	RadiusUnit string // KM|MILE
	Ratings    []string
	Amenities  []string
}

type HotelOfferSearch struct {
	HotelIDs     []string
	CheckInDate  string
	CheckOutDate string
	Adults       int
	RoomQuantity int
	Currency     string
	BestRateOnly bool
}

type ActivitySearch struct {
	Latitude  float64
	Longitude float64
	Radius    int // km
}

// Guest is the lead guest of a hotel booking.
type Guest struct {
	Title     string
	FirstName string
	LastName  string
	Phone     string
	Email     string
}

type PaymentCard struct {
	VendorCode string // VI, CA, AX...
	Number     string
	ExpiryDate string // YYYY-MM
}

type HotelBooking struct {
	OfferID string
	Guests  []Guest
	Card    PaymentCard
}
