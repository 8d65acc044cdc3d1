package mcpserver

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"mcp_gateway/internal/app"
	"mcp_gateway/internal/domain"
)

const iataPattern = "^[A-Za-z]{3}$"

var (
	expiryRe = regexp.MustCompile(`^[0-9]{4}-(0[1-9]|1[0-2])$`)
	ratingRe = regexp.MustCompile(`^[1-5]$`)
)

// AmadeusServices are the travel services behind the Amadeus tools.
type AmadeusServices struct {
	Flights    *app.FlightService
	Locations  *app.LocationService
	Hotels     *app.HotelService
	Activities *app.ActivityService
}

type amadeusTools struct{ AmadeusServices }

// RegisterAmadeus adds the travel tools to r.
func RegisterAmadeus(r *Registry, s AmadeusServices) {
	t := amadeusTools{s}
	r.Register("flights",
		t.searchFlights(), t.priceFlightOffer(), t.bookFlight(), t.getFlightOrder(), t.cancelFlightOrder(),
		t.searchFlightDestinations(), t.searchCheapestDates(), t.getFlightStatus(),
	)
	r.Register("reference", t.searchLocations(), t.lookupAirlines())
	r.Register("hotels", t.searchHotelsByCity(), t.searchHotelOffers(), t.getHotelOffer(), t.bookHotel())
	r.Register("activities", t.searchActivities(), t.getActivity())
}

// newTool sets the behaviour hints shared by every vendor-backed tool.
func newTool(name string, readOnly bool, opts ...mcp.ToolOption) mcp.Tool {
	hints := []mcp.ToolOption{
		mcp.WithReadOnlyHintAnnotation(readOnly),
		mcp.WithDestructiveHintAnnotation(!readOnly),
		mcp.WithIdempotentHintAnnotation(readOnly),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	return mcp.NewTool(name, append(hints, opts...)...)
}

func iataParam(name, desc string, required bool) mcp.ToolOption {
	opts := []mcp.PropertyOption{mcp.Description(desc), mcp.Pattern(iataPattern)}
	if required {
		opts = append(opts, mcp.Required())
	}
	return mcp.WithString(name, opts...)
}

/********** flights **********/

func (t amadeusTools) searchFlights() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_flights", true,
			mcp.WithDescription("Search flight offers between two airports or cities for given dates and passengers."),
			iataParam("origin", "Origin IATA airport or city code, e.g. MAD", true),
			iataParam("destination", "Destination IATA airport or city code, e.g. JFK", true),
			mcp.WithString("departure_date", mcp.Required(), mcp.Description("Departure date, YYYY-MM-DD")),
			mcp.WithString("return_date", mcp.Description("Return date for round trips, YYYY-MM-DD")),
			mcp.WithNumber("adults", mcp.Description("Adult travelers (1-9)"), mcp.Min(1), mcp.Max(9), mcp.DefaultNumber(1)),
			mcp.WithNumber("children", mcp.Description("Children aged 2-11"), mcp.Min(0), mcp.Max(8)),
			mcp.WithNumber("infants", mcp.Description("Infants under 2, at most one per adult"), mcp.Min(0), mcp.Max(9)),
			mcp.WithString("travel_class", mcp.Description("Cabin class"), mcp.Enum("ECONOMY", "PREMIUM_ECONOMY", "BUSINESS", "FIRST")),
			mcp.WithBoolean("non_stop", mcp.Description("Only direct flights")),
			mcp.WithString("currency", mcp.Description("ISO 4217 currency for prices, e.g. EUR"), mcp.Pattern("^[A-Za-z]{3}$")),
			mcp.WithNumber("max_price", mcp.Description("Maximum price per traveler"), mcp.Min(1)),
			mcp.WithNumber("max_results", mcp.Description("Maximum offers to return (1-250)"), mcp.Min(1), mcp.Max(250), mcp.DefaultNumber(10)),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q, err := flightSearchArgs(req)
			if err != nil {
				return nil, err
			}
			out, err := t.Flights.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightOffers(out, q)), nil
		},
	}
}

func flightSearchArgs(req mcp.CallToolRequest) (domain.FlightSearch, error) {
	var q domain.FlightSearch
	var err error
	if q.Origin, err = iataCode(req, "origin", true); err != nil {
		return q, err
	}
	if q.Destination, err = iataCode(req, "destination", true); err != nil {
		return q, err
	}
	if q.Origin == q.Destination {
		return q, argErr("destination", "must differ from origin")
	}
	dep, depT, err := isoDate(req, "departure_date", true)
	if err != nil {
		return q, err
	}
	ret, retT, err := isoDate(req, "return_date", false)
	if err != nil {
		return q, err
	}
	if ret != "" && retT.Before(depT) {
		return q, argErr("return_date", "must not be before departure_date")
	}
	q.DepartureDate, q.ReturnDate = dep, ret
	if q.Adults, err = intArg(req, "adults", 1, 1, 9); err != nil {
		return q, err
	}
	if q.Children, err = intArg(req, "children", 0, 0, 8); err != nil {
		return q, err
	}
	if q.Infants, err = intArg(req, "infants", 0, 0, 9); err != nil {
		return q, err
	}
	if q.Adults+q.Children > 9 {
		return q, argErr("children", "adults and children together must not exceed 9")
	}
	if q.Infants > q.Adults {
		return q, argErr("infants", "must not exceed adults")
	}
	if q.MaxPrice, err = intArg(req, "max_price", 0, 0, 1_000_000); err != nil {
		return q, err
	}
	if q.Max, err = intArg(req, "max_results", 10, 1, 250); err != nil {
		return q, err
	}
	q.TravelClass = strings.ToUpper(optString(req, "travel_class"))
	q.NonStop = req.GetBool("non_stop", false)
	q.Currency = strings.ToUpper(optString(req, "currency"))
	return q, nil
}

func (t amadeusTools) priceFlightOffer() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("price_flight_offer", true,
			mcp.WithDescription("Confirm the current price and availability of a flight offer returned by search_flights."),
			mcp.WithObject("flight_offer", mcp.Required(), mcp.Description("One flight offer object exactly as returned by the search")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			offer, err := objectArg(req, "flight_offer")
			if err != nil {
				return nil, err
			}
			out, err := t.Flights.Price(ctx, offer)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatPricedOffer(out)), nil
		},
	}
}

func (t amadeusTools) bookFlight() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("book_flight", false,
			mcp.WithDescription("Book a flight offer for the given travelers. The offer is repriced before the order is created."),
			mcp.WithObject("flight_offer", mcp.Required(), mcp.Description("Flight offer object from search_flights or price_flight_offer")),
			mcp.WithArray("travelers", mcp.Required(),
				mcp.Description("Travelers in Amadeus format: id, dateOfBirth, name{firstName,lastName}, gender, contact, documents"),
				mcp.Items(map[string]any{"type": "object"}),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			offer, err := objectArg(req, "flight_offer")
			if err != nil {
				return nil, err
			}
			travelers, err := objectList(req, "travelers")
			if err != nil {
				return nil, err
			}
			for i, tr := range travelers {
				if _, ok := tr["name"].(map[string]any); !ok {
					return nil, argErr(fmt.Sprintf("travelers[%d].name", i), "required object")
				}
			}
			out, err := t.Flights.Book(ctx, offer, travelers)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightOrder(out)), nil
		},
	}
}

func orderIDParam() mcp.ToolOption {
	return mcp.WithString("order_id", mcp.Required(), mcp.Description("Flight order id returned by book_flight"))
}

func (t amadeusTools) getFlightOrder() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_flight_order", true,
			mcp.WithDescription("Retrieve a flight order by id."),
			orderIDParam(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "order_id")
			if err != nil {
				return nil, err
			}
			out, err := t.Flights.GetOrder(ctx, id)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightOrder(out)), nil
		},
	}
}

func (t amadeusTools) cancelFlightOrder() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("cancel_flight_order", false,
			mcp.WithDescription("Cancel a flight order by id."),
			orderIDParam(),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "order_id")
			if err != nil {
				return nil, err
			}
			if err := t.Flights.CancelOrder(ctx, id); err != nil {
				return nil, err
			}
			return textResult(fmt.Sprintf("Flight order %s cancelled.", id)), nil
		},
	}
}

// departureWindow accepts a date or a "from,to" date range.
func departureWindow(req mcp.CallToolRequest) (string, error) {
	v := optString(req, "departure_date")
	if v == "" {
		return "", nil
	}
	parts := strings.Split(v, ",")
	if len(parts) > 2 {
		return "", argErr("departure_date", "use a date or a from,to range")
	}
	for _, p := range parts {
		if _, err := time.Parse(dateLayout, strings.TrimSpace(p)); err != nil {
			return "", argErr("departure_date", "%q is not a YYYY-MM-DD date", strings.TrimSpace(p))
		}
	}
	return strings.ReplaceAll(v, " ", ""), nil
}

func (t amadeusTools) searchFlightDestinations() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_flight_destinations", true,
			mcp.WithDescription("Find the cheapest destinations reachable from an origin city."),
			iataParam("origin", "Origin IATA city code, e.g. PAR", true),
			mcp.WithString("departure_date", mcp.Description("Departure date or range, YYYY-MM-DD or YYYY-MM-DD,YYYY-MM-DD")),
			mcp.WithNumber("max_price", mcp.Description("Maximum price"), mcp.Min(1)),
			mcp.WithBoolean("one_way", mcp.Description("One-way journeys only")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.DestinationSearch
			var err error
			if q.Origin, err = iataCode(req, "origin", true); err != nil {
				return nil, err
			}
			if q.DepartureDate, err = departureWindow(req); err != nil {
				return nil, err
			}
			if q.MaxPrice, err = intArg(req, "max_price", 0, 0, 1_000_000); err != nil {
				return nil, err
			}
			q.OneWay = req.GetBool("one_way", false)
			out, err := t.Flights.Destinations(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightDestinations(out, q.Origin)), nil
		},
	}
}

func (t amadeusTools) searchCheapestDates() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_cheapest_dates", true,
			mcp.WithDescription("Find the cheapest travel dates for a route."),
			iataParam("origin", "Origin IATA city code", true),
			iataParam("destination", "Destination IATA city code", true),
			mcp.WithString("departure_date", mcp.Description("Departure date or range, YYYY-MM-DD or YYYY-MM-DD,YYYY-MM-DD")),
			mcp.WithBoolean("one_way", mcp.Description("One-way journeys only")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.FlightDateSearch
			var err error
			if q.Origin, err = iataCode(req, "origin", true); err != nil {
				return nil, err
			}
			if q.Destination, err = iataCode(req, "destination", true); err != nil {
				return nil, err
			}
			if q.DepartureDate, err = departureWindow(req); err != nil {
				return nil, err
			}
			q.OneWay = req.GetBool("one_way", false)
			out, err := t.Flights.CheapestDates(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightDates(out, q.Origin, q.Destination)), nil
		},
	}
}

func (t amadeusTools) getFlightStatus() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_flight_status", true,
			mcp.WithDescription("Get the schedule and status of a flight on a given day."),
			mcp.WithString("carrier_code", mcp.Required(), mcp.Description("Airline IATA code, e.g. IB")),
			mcp.WithString("flight_number", mcp.Required(), mcp.Description("Flight number without the airline code, e.g. 532")),
			mcp.WithString("scheduled_departure_date", mcp.Required(), mcp.Description("Scheduled departure date, YYYY-MM-DD")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.FlightStatusQuery
			carrier, err := reqString(req, "carrier_code")
			if err != nil {
				return nil, err
			}
			if q.CarrierCode = strings.ToUpper(carrier); !airlineRe.MatchString(q.CarrierCode) {
				return nil, argErr("carrier_code", "%q is not an airline code", carrier)
			}
			number, err := reqString(req, "flight_number")
			if err != nil {
				return nil, err
			}
			if q.FlightNumber = strings.ToUpper(number); !flightRe.MatchString(q.FlightNumber) {
				return nil, argErr("flight_number", "%q is not a flight number", number)
			}
			if q.DepartureDate, _, err = isoDate(req, "scheduled_departure_date", true); err != nil {
				return nil, err
			}
			out, err := t.Flights.Status(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatFlightStatus(out, q)), nil
		},
	}
}

/********** reference data **********/

func (t amadeusTools) searchLocations() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_locations", true,
			mcp.WithDescription("Search airports and cities by keyword to find their IATA codes."),
			mcp.WithString("keyword", mcp.Required(), mcp.Description("Start of a city or airport name, e.g. LON"), mcp.MinLength(1)),
			mcp.WithArray("sub_type", mcp.Description("Location types to include, defaults to both"),
				mcp.Items(map[string]any{"type": "string", "enum": []string{"AIRPORT", "CITY"}}),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			kw, err := reqString(req, "keyword")
			if err != nil {
				return nil, err
			}
			subTypes := stringList(req, "sub_type")
			if len(subTypes) == 0 {
				subTypes = []string{"AIRPORT", "CITY"}
			}
			out, err := t.Locations.Search(ctx, kw, subTypes)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatLocations(out, kw)), nil
		},
	}
}

func (t amadeusTools) lookupAirlines() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("lookup_airlines", true,
			mcp.WithDescription("Look up airline names from IATA or ICAO codes."),
			mcp.WithString("airline_codes", mcp.Required(), mcp.Description("Comma separated airline codes, e.g. BA,AF")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			codes := stringList(req, "airline_codes")
			if len(codes) == 0 {
				return nil, argErr("airline_codes", "required")
			}
			for i, c := range codes {
				codes[i] = strings.ToUpper(c)
				if !airlineRe.MatchString(codes[i]) {
					return nil, argErr("airline_codes", "%q is not an airline code", c)
				}
			}
			out, err := t.Locations.Airlines(ctx, codes)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatAirlines(out, codes)), nil
		},
	}
}

/********** hotels **********/

func (t amadeusTools) searchHotelsByCity() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_hotels_by_city", true,
			mcp.WithDescription("List hotels in a city."),
			iataParam("city_code", "IATA city code, e.g. PAR", true),
			mcp.WithNumber("radius", mcp.Description("Search radius around the city center"), mcp.Min(1), mcp.Max(300), mcp.DefaultNumber(5)),
			mcp.WithString("radius_unit", mcp.Description("Radius unit"), mcp.Enum("KM", "MILE")),
			mcp.WithString("ratings", mcp.Description("Comma separated star ratings, e.g. 4,5")),
			mcp.WithString("amenities", mcp.Description("Comma separated amenities, e.g. SWIMMING_POOL,SPA")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			q, err := hotelCityArgs(req)
			if err != nil {
				return nil, err
			}
			out, err := t.Hotels.ListByCity(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatHotelList(out, q.CityCode)), nil
		},
	}
}

func hotelCityArgs(req mcp.CallToolRequest) (domain.HotelCitySearch, error) {
	var q domain.HotelCitySearch
	var err error
	if q.CityCode, err = iataCode(req, "city_code", true); err != nil {
		return q, err
	}
	if q.Radius, err = intArg(req, "radius", 5, 1, 300); err != nil {
		return q, err
	}
	q.RadiusUnit = strings.ToUpper(optString(req, "radius_unit"))
	q.Ratings = stringList(req, "ratings")
	for _, r := range q.Ratings {
		if !ratingRe.MatchString(r) {
			return q, argErr("ratings", "%q is not a rating between 1 and 5", r)
		}
	}
	for _, a := range stringList(req, "amenities") {
		q.Amenities = append(q.Amenities, strings.ToUpper(a))
	}
	return q, nil
}

func (t amadeusTools) searchHotelOffers() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_hotel_offers", true,
			mcp.WithDescription("Search room offers for specific hotels, or for the hotels of a city when no hotel ids are given."),
			mcp.WithString("hotel_ids", mcp.Description("Comma separated Amadeus hotel ids, e.g. MCLONGHM,HLPAR266")),
			iataParam("city_code", "IATA city code, used when hotel_ids is empty", false),
			mcp.WithString("check_in_date", mcp.Description("Check-in date, YYYY-MM-DD (default today)")),
			mcp.WithString("check_out_date", mcp.Description("Check-out date, YYYY-MM-DD (default next day)")),
			mcp.WithNumber("adults", mcp.Description("Adults per room (1-9)"), mcp.Min(1), mcp.Max(9), mcp.DefaultNumber(1)),
			mcp.WithNumber("room_quantity", mcp.Description("Rooms (1-9)"), mcp.Min(1), mcp.Max(9), mcp.DefaultNumber(1)),
			mcp.WithString("currency", mcp.Description("ISO 4217 currency"), mcp.Pattern("^[A-Za-z]{3}$")),
			mcp.WithBoolean("best_rate_only", mcp.Description("Only the cheapest offer per hotel"), mcp.DefaultBool(true)),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.HotelOfferSearch
			q.HotelIDs = stringList(req, "hotel_ids")
			city, err := iataCode(req, "city_code", false)
			if err != nil {
				return nil, err
			}
			if len(q.HotelIDs) == 0 && city == "" {
				return nil, argErr("hotel_ids", "either hotel_ids or city_code is required")
			}
			in, inT, err := isoDate(req, "check_in_date", false)
			if err != nil {
				return nil, err
			}
			out, outT, err := isoDate(req, "check_out_date", false)
			if err != nil {
				return nil, err
			}
			if in != "" && out != "" && !outT.After(inT) {
				return nil, argErr("check_out_date", "must be after check_in_date")
			}
			q.CheckInDate, q.CheckOutDate = in, out
			if q.Adults, err = intArg(req, "adults", 1, 1, 9); err != nil {
				return nil, err
			}
			if q.RoomQuantity, err = intArg(req, "room_quantity", 1, 1, 9); err != nil {
				return nil, err
			}
			q.Currency = strings.ToUpper(optString(req, "currency"))
			q.BestRateOnly = req.GetBool("best_rate_only", true)

			var resp map[string]any
			if len(q.HotelIDs) > 0 {
				resp, err = t.Hotels.SearchOffers(ctx, q)
			} else {
				resp, err = t.Hotels.SearchCityOffers(ctx, domain.HotelCitySearch{CityCode: city}, q)
			}
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatHotelOffers(resp)), nil
		},
	}
}

func (t amadeusTools) getHotelOffer() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_hotel_offer", true,
			mcp.WithDescription("Get the details and conditions of one hotel offer."),
			mcp.WithString("offer_id", mcp.Required(), mcp.Description("Offer id returned by search_hotel_offers")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "offer_id")
			if err != nil {
				return nil, err
			}
			out, err := t.Hotels.GetOffer(ctx, id)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatHotelOffer(out)), nil
		},
	}
}

func (t amadeusTools) bookHotel() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("book_hotel", false,
			mcp.WithDescription("Book a hotel offer for the given guests with a payment card."),
			mcp.WithString("offer_id", mcp.Required(), mcp.Description("Offer id returned by search_hotel_offers")),
			mcp.WithArray("guests", mcp.Required(),
				mcp.Description("Guests, the first one is the lead guest"),
				mcp.Items(map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":      map[string]any{"type": "string"},
						"first_name": map[string]any{"type": "string"},
						"last_name":  map[string]any{"type": "string"},
						"phone":      map[string]any{"type": "string"},
						"email":      map[string]any{"type": "string"},
					},
					"required": []string{"first_name", "last_name", "email"},
				}),
			),
			mcp.WithObject("payment", mcp.Required(),
				mcp.Description("Payment card"),
				mcp.Properties(map[string]any{
					"vendor_code": map[string]any{"type": "string", "description": "Card vendor, e.g. VI, CA, AX"},
					"card_number": map[string]any{"type": "string"},
					"expiry_date": map[string]any{"type": "string", "description": "YYYY-MM"},
				}),
			),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			b, err := hotelBookingArgs(req)
			if err != nil {
				return nil, err
			}
			out, err := t.Hotels.Book(ctx, b)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatHotelBooking(out)), nil
		},
	}
}

func hotelBookingArgs(req mcp.CallToolRequest) (domain.HotelBooking, error) {
	var b domain.HotelBooking
	var err error
	if b.OfferID, err = reqString(req, "offer_id"); err != nil {
		return b, err
	}
	guests, err := objectList(req, "guests")
	if err != nil {
		return b, err
	}
	for i, g := range guests {
		guest := domain.Guest{
			Title:     strField(g, "title"),
			FirstName: strField(g, "first_name"),
			LastName:  strField(g, "last_name"),
			Phone:     strField(g, "phone"),
			Email:     strField(g, "email"),
		}
		if guest.FirstName == "" || guest.LastName == "" {
			return b, argErr(fmt.Sprintf("guests[%d]", i), "first_name and last_name are required")
		}
		if !strings.Contains(guest.Email, "@") {
			return b, argErr(fmt.Sprintf("guests[%d].email", i), "a valid email is required")
		}
		b.Guests = append(b.Guests, guest)
	}
	pay, err := objectArg(req, "payment")
	if err != nil {
		return b, err
	}
	b.Card = domain.PaymentCard{
		VendorCode: strings.ToUpper(strField(pay, "vendor_code")),
		Number:     strings.ReplaceAll(strField(pay, "card_number"), " ", ""),
		ExpiryDate: strField(pay, "expiry_date"),
	}
	switch {
	case len(b.Card.VendorCode) != 2:
		return b, argErr("payment.vendor_code", "two-letter card vendor code required")
	case len(b.Card.Number) < 12:
		return b, argErr("payment.card_number", "card number required")
	case !expiryRe.MatchString(b.Card.ExpiryDate):
		return b, argErr("payment.expiry_date", "must be YYYY-MM")
	}
	return b, nil
}

func strField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

/********** activities **********/

func (t amadeusTools) searchActivities() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("search_activities", true,
			mcp.WithDescription("Find tours and activities around a location."),
			mcp.WithNumber("latitude", mcp.Required(), mcp.Description("Latitude in decimal degrees"), mcp.Min(-90), mcp.Max(90)),
			mcp.WithNumber("longitude", mcp.Required(), mcp.Description("Longitude in decimal degrees"), mcp.Min(-180), mcp.Max(180)),
			mcp.WithNumber("radius", mcp.Description("Radius in km (0-20)"), mcp.Min(0), mcp.Max(20), mcp.DefaultNumber(1)),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var q domain.ActivitySearch
			var err error
			if q.Latitude, err = floatArg(req, "latitude", -90, 90); err != nil {
				return nil, err
			}
			if q.Longitude, err = floatArg(req, "longitude", -180, 180); err != nil {
				return nil, err
			}
			if q.Radius, err = intArg(req, "radius", 1, 0, 20); err != nil {
				return nil, err
			}
			out, err := t.Activities.Search(ctx, q)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatActivities(out, q)), nil
		},
	}
}

func (t amadeusTools) getActivity() server.ServerTool {
	return server.ServerTool{
		Tool: newTool("get_activity", true,
			mcp.WithDescription("Get the details of one activity."),
			mcp.WithString("activity_id", mcp.Required(), mcp.Description("Activity id returned by search_activities")),
		),
		Handler: func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			id, err := reqString(req, "activity_id")
			if err != nil {
				return nil, err
			}
			out, err := t.Activities.Get(ctx, id)
			if err != nil {
				return nil, err
			}
			return textResult(app.FormatActivity(out)), nil
		},
	}
}
