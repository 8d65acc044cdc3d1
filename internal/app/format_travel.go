package app

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"mcp_gateway/internal/domain"
)

/********** flights **********/

func FormatFlightOffers(resp map[string]any, q domain.FlightSearch) string {
	offers := lookupItems(resp, "data")
	if len(offers) == 0 {
		return fmt.Sprintf("No flight offers found for %s → %s on %s.", q.Origin, q.Destination, q.DepartureDate)
	}
	carriers := lookupMap(resp, "dictionaries.carriers")

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d flight %s for %s → %s on %s", len(offers), plural(len(offers), "offer", "offers"),
		q.Origin, q.Destination, q.DepartureDate)
	if q.ReturnDate != "" {
		fmt.Fprintf(&b, " (return %s)", q.ReturnDate)
	}
	b.WriteString(":\n")
	for i, o := range offers {
		b.WriteString("\n")
		writeFlightOffer(&b, i+1, o, carriers)
	}
	return strings.TrimRight(b.String(), "\n")
}

func writeFlightOffer(b *strings.Builder, n int, o map[string]any, carriers map[string]any) {
	price := money(firstStr(o, "price.grandTotal", "price.total"), lookupStr(o, "price.currency"))
	fmt.Fprintf(b, "%d. Offer %s: %s", n, lookupStr(o, "id"), price)
	if seats := lookupStr(o, "numberOfBookableSeats"); seats != "" {
		fmt.Fprintf(b, " (%s seats left)", seats)
	}
	if cabin := cabinOf(o); cabin != "" {
		fmt.Fprintf(b, ", %s", cabin)
	}
	b.WriteString("\n")
	for i, it := range lookupItems(o, "itineraries") {
		fmt.Fprintf(b, "   %s: %s\n", legLabel(i), itinerarySummary(it, carriers))
	}
}

func legLabel(i int) string {
	switch i {
	case 0:
		return "Outbound"
	case 1:
		return "Return"
	}
	return fmt.Sprintf("Leg %d", i+1)
}

func itinerarySummary(it map[string]any, carriers map[string]any) string {
	segs := lookupItems(it, "segments")
	if len(segs) == 0 {
		return "no segments"
	}
	first, last := segs[0], segs[len(segs)-1]
	stops := "nonstop"
	if n := len(segs) - 1; n > 0 {
		stops = fmt.Sprintf("%d %s", n, plural(n, "stop", "stops"))
	}
	flights := make([]string, 0, len(segs))
	for _, s := range segs {
		code := lookupStr(s, "carrierCode")
		f := code + lookupStr(s, "number")
		if name := lookupStr(carriers, code); name != "" {
			f += " (" + name + ")"
		}
		flights = append(flights, f)
	}
	return joinNonEmpty(" · ",
		fmt.Sprintf("%s %s → %s %s",
			lookupStr(first, "departure.iataCode"), clock(lookupStr(first, "departure.at")),
			lookupStr(last, "arrival.iataCode"), clock(lookupStr(last, "arrival.at"))),
		isoDuration(lookupStr(it, "duration")),
		stops,
		strings.Join(flights, ", "),
	)
}

func cabinOf(o map[string]any) string {
	for _, tp := range lookupItems(o, "travelerPricings") {
		for _, fd := range lookupItems(tp, "fareDetailsBySegment") {
			if c := lookupStr(fd, "cabin"); c != "" {
				return c
			}
		}
	}
	return ""
}

func FormatPricedOffer(resp map[string]any) string {
	offers := lookupItems(resp, "data.flightOffers")
	if len(offers) == 0 {
		return "No priced flight offer returned."
	}
	o := offers[0]
	var b strings.Builder
	fmt.Fprintf(&b, "Confirmed price for offer %s: %s", lookupStr(o, "id"),
		money(firstStr(o, "price.grandTotal", "price.total"), lookupStr(o, "price.currency")))
	if base := lookupStr(o, "price.base"); base != "" {
		fmt.Fprintf(&b, " (base %s)", base)
	}
	b.WriteString("\n")
	if d := lookupStr(o, "lastTicketingDate"); d != "" {
		fmt.Fprintf(&b, "Last ticketing date: %s\n", d)
	}
	if v, ok := lookupAny(o, "instantTicketingRequired").(bool); ok && v {
		b.WriteString("Instant ticketing required.\n")
	}
	for i, it := range lookupItems(o, "itineraries") {
		fmt.Fprintf(&b, "%s: %s\n", legLabel(i), itinerarySummary(it, nil))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatFlightOrder(resp map[string]any) string {
	order := lookupMap(resp, "data")
	if order == nil {
		return "No flight order returned."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Flight order %s\n", lookupStr(order, "id"))
	for _, r := range lookupItems(order, "associatedRecords") {
		fmt.Fprintf(&b, "Booking reference: %s (%s)\n", lookupStr(r, "reference"), lookupStr(r, "originSystemCode"))
	}
	if travelers := lookupItems(order, "travelers"); len(travelers) > 0 {
		names := make([]string, 0, len(travelers))
		for _, t := range travelers {
			names = append(names, joinNonEmpty(" ", lookupStr(t, "name.firstName"), lookupStr(t, "name.lastName")))
		}
		fmt.Fprintf(&b, "Travelers: %s\n", strings.Join(names, ", "))
	}
	for _, o := range lookupItems(order, "flightOffers") {
		fmt.Fprintf(&b, "Total: %s\n", money(firstStr(o, "price.grandTotal", "price.total"), lookupStr(o, "price.currency")))
		for i, it := range lookupItems(o, "itineraries") {
			fmt.Fprintf(&b, "%s: %s\n", legLabel(i), itinerarySummary(it, nil))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatFlightDestinations(resp map[string]any, origin string) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No flight destinations found from %s.", origin)
	}
	cur := lookupStr(resp, "meta.currency")
	var b strings.Builder
	fmt.Fprintf(&b, "Cheapest destinations from %s:\n", origin)
	for _, d := range items {
		fmt.Fprintf(&b, "- %s: %s, depart %s", lookupStr(d, "destination"), money(lookupStr(d, "price.total"), cur), lookupStr(d, "departureDate"))
		if r := lookupStr(d, "returnDate"); r != "" {
			fmt.Fprintf(&b, ", return %s", r)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatFlightDates(resp map[string]any, origin, destination string) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No cheapest dates found for %s → %s.", origin, destination)
	}
	cur := lookupStr(resp, "meta.currency")
	var b strings.Builder
	fmt.Fprintf(&b, "Cheapest dates for %s → %s:\n", origin, destination)
	for _, d := range items {
		fmt.Fprintf(&b, "- %s", lookupStr(d, "departureDate"))
		if r := lookupStr(d, "returnDate"); r != "" {
			fmt.Fprintf(&b, " to %s", r)
		}
		fmt.Fprintf(&b, ": %s\n", money(lookupStr(d, "price.total"), cur))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatFlightStatus(resp map[string]any, q domain.FlightStatusQuery) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No flight status found for %s%s on %s.", q.CarrierCode, q.FlightNumber, q.DepartureDate)
	}
	var b strings.Builder
	for _, f := range items {
		fmt.Fprintf(&b, "Flight %s%s on %s\n", lookupStr(f, "flightDesignator.carrierCode"),
			lookupStr(f, "flightDesignator.flightNumber"), lookupStr(f, "scheduledDepartureDate"))
		for _, p := range lookupItems(f, "flightPoints") {
			code := lookupStr(p, "iataCode")
			for _, kind := range []string{"departure", "arrival"} {
				for _, tm := range lookupItems(p, kind+".timings") {
					fmt.Fprintf(&b, "  %s %s: %s (%s)\n", code, kind, clock(lookupStr(tm, "value")), lookupStr(tm, "qualifier"))
				}
			}
		}
		for _, leg := range lookupItems(f, "legs") {
			fmt.Fprintf(&b, "  Leg %s → %s: aircraft %s, %s\n", lookupStr(leg, "boardPointIataCode"), lookupStr(leg, "offPointIataCode"),
				lookupStr(leg, "aircraftEquipment.aircraftType"), isoDuration(lookupStr(leg, "scheduledLegDuration")))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

/********** reference data **********/

func FormatLocations(resp map[string]any, keyword string) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No locations found matching %q.", keyword)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Locations matching %q:\n", keyword)
	for _, l := range items {
		fmt.Fprintf(&b, "- %s (%s) %s\n", lookupStr(l, "iataCode"), lookupStr(l, "subType"),
			joinNonEmpty(", ", lookupStr(l, "name"), lookupStr(l, "address.cityName"), lookupStr(l, "address.countryName")))
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatAirlines(resp map[string]any, codes []string) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No airlines found for %s.", strings.Join(codes, ", "))
	}
	var b strings.Builder
	b.WriteString("Airlines:\n")
	for _, a := range items {
		fmt.Fprintf(&b, "- %s", firstStr(a, "iataCode", "icaoCode"))
		if icao := lookupStr(a, "icaoCode"); icao != "" {
			fmt.Fprintf(&b, " / %s", icao)
		}
		fmt.Fprintf(&b, ": %s\n", firstStr(a, "commonName", "businessName"))
	}
	return strings.TrimRight(b.String(), "\n")
}

/********** hotels **********/

func FormatHotelList(resp map[string]any, cityCode string) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No hotels found in %s.", cityCode)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s in %s:\n", len(items), plural(len(items), "hotel", "hotels"), cityCode)
	for _, h := range items {
		fmt.Fprintf(&b, "- %s [%s]", lookupStr(h, "name"), lookupStr(h, "hotelId"))
		if r := lookupStr(h, "rating"); r != "" {
			fmt.Fprintf(&b, " %s★", r)
		}
		if d := getFloatFlexible(h, "distance.value"); d != nil {
			fmt.Fprintf(&b, ", %.1f %s from center", *d, lookupStr(h, "distance.unit"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatHotelOffers(resp map[string]any) string {
	items := lookupItems(resp, "data")
	var b strings.Builder
	count := 0
	for _, h := range items {
		offers := lookupItems(h, "offers")
		if len(offers) == 0 {
			continue
		}
		count++
		fmt.Fprintf(&b, "\n%s [%s]\n", firstStr(h, "hotel.name", "hotel.hotelId"), lookupStr(h, "hotel.hotelId"))
		for _, o := range offers {
			fmt.Fprintf(&b, "  - Offer %s: %s\n", lookupStr(o, "id"), hotelOfferLine(o))
		}
	}
	if count == 0 {
		return "No hotel offers found."
	}
	return fmt.Sprintf("Found offers at %d %s:\n%s", count, plural(count, "hotel", "hotels"), strings.TrimRight(b.String(), "\n"))
}

func hotelOfferLine(o map[string]any) string {
	room := joinNonEmpty(" ", lookupStr(o, "room.typeEstimated.category"), lookupStr(o, "room.typeEstimated.bedType"))
	return joinNonEmpty(", ",
		money(lookupStr(o, "price.total"), lookupStr(o, "price.currency")),
		joinNonEmpty(" to ", lookupStr(o, "checkInDate"), lookupStr(o, "checkOutDate")),
		room,
		lookupStr(o, "policies.paymentType"),
	)
}

func FormatHotelOffer(resp map[string]any) string {
	h := lookupMap(resp, "data")
	if h == nil {
		return "No hotel offer returned."
	}
	offers := lookupItems(h, "offers")
	if len(offers) == 0 {
		return "No hotel offers found."
	}
	o := offers[0]
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", firstStr(h, "hotel.name", "hotel.hotelId"), lookupStr(h, "hotel.hotelId"))
	fmt.Fprintf(&b, "Offer %s: %s\n", lookupStr(o, "id"), hotelOfferLine(o))
	if desc := lookupStr(o, "room.description.text"); desc != "" {
		fmt.Fprintf(&b, "Room: %s\n", strings.TrimSpace(desc))
	}
	if adults := lookupStr(o, "guests.adults"); adults != "" {
		fmt.Fprintf(&b, "Guests: %s adults\n", adults)
	}
	for _, c := range lookupItems(o, "policies.cancellations") {
		line := joinNonEmpty(", ", lookupStr(c, "deadline"), money(lookupStr(c, "amount"), lookupStr(o, "price.currency")))
		if line == "" {
			line = firstStr(c, "description.text", "type")
		}
		fmt.Fprintf(&b, "Cancellation: %s\n", line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatHotelBooking(resp map[string]any) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		if m := lookupMap(resp, "data"); m != nil {
			items = []map[string]any{m}
		}
	}
	if len(items) == 0 {
		return "Hotel booking returned no confirmation."
	}
	var b strings.Builder
	b.WriteString("Hotel booking confirmed:\n")
	for _, bk := range items {
		fmt.Fprintf(&b, "- Booking %s, confirmation %s", lookupStr(bk, "id"), lookupStr(bk, "providerConfirmationId"))
		for _, r := range lookupItems(bk, "associatedRecords") {
			fmt.Fprintf(&b, ", reference %s", lookupStr(r, "reference"))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

/********** activities **********/

func FormatActivities(resp map[string]any, q domain.ActivitySearch) string {
	items := lookupItems(resp, "data")
	if len(items) == 0 {
		return fmt.Sprintf("No activities found near %g, %g.", q.Latitude, q.Longitude)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d %s near %g, %g:\n", len(items), plural(len(items), "activity", "activities"), q.Latitude, q.Longitude)
	for _, a := range items {
		fmt.Fprintf(&b, "- [%s] %s", lookupStr(a, "id"), lookupStr(a, "name"))
		if p := money(lookupStr(a, "price.amount"), lookupStr(a, "price.currencyCode")); p != "" {
			fmt.Fprintf(&b, ", %s", p)
		}
		if r := getFloatFlexible(a, "rating"); r != nil {
			fmt.Fprintf(&b, ", rated %.1f", *r)
		}
		b.WriteString("\n")
		if d := firstStr(a, "shortDescription"); d != "" {
			fmt.Fprintf(&b, "  %s\n", truncate(plainText(d), 200))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func FormatActivity(resp map[string]any) string {
	a := lookupMap(resp, "data")
	if a == nil {
		return "No activity returned."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", lookupStr(a, "name"), lookupStr(a, "id"))
	if p := money(lookupStr(a, "price.amount"), lookupStr(a, "price.currencyCode")); p != "" {
		fmt.Fprintf(&b, "Price: %s\n", p)
	}
	if r := getFloatFlexible(a, "rating"); r != nil {
		fmt.Fprintf(&b, "Rating: %.1f\n", *r)
	}
	if d := lookupStr(a, "minimumDuration"); d != "" {
		fmt.Fprintf(&b, "Duration: %s\n", d)
	}
	if lat, lon := getFloatFlexible(a, "geoCode.latitude"), getFloatFlexible(a, "geoCode.longitude"); lat != nil && lon != nil {
		fmt.Fprintf(&b, "Location: %g, %g\n", *lat, *lon)
	}
	if d := firstStr(a, "description", "shortDescription"); d != "" {
		fmt.Fprintf(&b, "\n%s\n", truncate(plainText(d), 1500))
	}
	if link := lookupStr(a, "bookingLink"); link != "" {
		fmt.Fprintf(&b, "\nBook: %s\n", link)
	}
	if pics := firstSliceStrings(a, "pictures"); len(pics) > 0 {
		fmt.Fprintf(&b, "Pictures: %s\n", strings.Join(pics[:min(3, len(pics))], " "))
	}
	return strings.TrimRight(b.String(), "\n")
}

// markup strips every tag; script and style contents are dropped with them.
var markup = bluemonday.StrictPolicy().AddSpaceWhenStrippingTag(true)

// plainText turns the HTML that activity descriptions come with into a
// single line of text with entities decoded.
func plainText(s string) string {
	return strings.Join(strings.Fields(html.UnescapeString(markup.Sanitize(s))), " ")
}
