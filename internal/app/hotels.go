package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"mcp_gateway/internal/domain"
)

const (
	hotelBatchSize   = 20 // hotel IDs per offers request
	hotelBatchLimit  = 3  // concurrent offers requests
	maxHotelsPerCity = 60
)

type HotelService struct {
	amadeus domain.AmadeusClient
}

func NewHotelService(c domain.AmadeusClient) *HotelService {
	return &HotelService{amadeus: c}
}

func (s *HotelService) ListByCity(ctx context.Context, q domain.HotelCitySearch) (map[string]any, error) {
	out, err := s.amadeus.ListHotelsByCity(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list hotels in %s: %w", q.CityCode, err)
	}
	return out, nil
}

func (s *HotelService) SearchOffers(ctx context.Context, q domain.HotelOfferSearch) (map[string]any, error) {
	out, err := s.amadeus.SearchHotelOffers(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to search hotel offers: %w", err)
	}
	return out, nil
}

// SearchCityOffers lists the hotels of a city and fetches their offers in
// batches. Batches that fail are logged and skipped unless all of them fail.
// The merged result keeps the shape of a single offers response.
func (s *HotelService) SearchCityOffers(ctx context.Context, city domain.HotelCitySearch, q domain.HotelOfferSearch) (map[string]any, error) {
	hotels, err := s.ListByCity(ctx, city)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, h := range lookupItems(hotels, "data") {
		if id := lookupStr(h, "hotelId"); id != "" {
			ids = append(ids, id)
		}
		if len(ids) == maxHotelsPerCity {
			break
		}
	}
	if len(ids) == 0 {
		return map[string]any{"data": []any{}}, nil
	}

	var batches [][]string
	for i := 0; i < len(ids); i += hotelBatchSize {
		batches = append(batches, ids[i:min(i+hotelBatchSize, len(ids))])
	}

	results := make([][]any, len(batches))
	errs := make([]error, len(batches))
	sem := semaphore.NewWeighted(hotelBatchLimit)
	var wg sync.WaitGroup

	for i, batch := range batches {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			errs[i] = err
			continue
		}
		wg.Add(1)
		go func(i int, batch []string) {
			defer wg.Done()
			defer sem.Release(1)

			bq := q
			bq.HotelIDs = batch
			out, err := s.amadeus.SearchHotelOffers(ctx, bq)
			if err != nil {
				errs[i] = err
				return
			}
			if data, ok := out["data"].([]any); ok {
				results[i] = data
			}
		}(i, batch)
	}
	wg.Wait()

	merged := make([]any, 0, len(ids))
	failed := 0
	for i := range batches {
		if errs[i] != nil {
			failed++
			log.Warn().Err(errs[i]).Int("batch", i).Str("city", city.CityCode).Msg("hotel offers batch failed")
			continue
		}
		merged = append(merged, results[i]...)
	}
	if failed == len(batches) {
		return nil, fmt.Errorf("failed to search hotel offers in %s: %w", city.CityCode, errors.Join(errs...))
	}
	return map[string]any{"data": merged}, nil
}

func (s *HotelService) GetOffer(ctx context.Context, offerID string) (map[string]any, error) {
	out, err := s.amadeus.GetHotelOffer(ctx, offerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get hotel offer %s: %w", offerID, err)
	}
	return out, nil
}

func (s *HotelService) Book(ctx context.Context, b domain.HotelBooking) (map[string]any, error) {
	out, err := s.amadeus.BookHotel(ctx, b)
	if err != nil {
		return nil, fmt.Errorf("failed to book hotel offer %s: %w", b.OfferID, err)
	}
	return out, nil
}
