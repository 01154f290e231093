package compute

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/rs/zerolog"

	"github.com/bcls/bcls/pkg/transport"
)

// pager is the cursor of one aggregated-instances traversal. It fetches one
// page per next call, chained by the opaque continuation token, and holds
// the auth token obtained once by the service. Once finished (last page
// seen, or any transport failure), next returns nothing forever.
type pager struct {
	transport Getter
	logger    zerolog.Logger

	project   string
	baseURL   string
	filter    string // raw name pattern, empty = full fleet
	authToken string

	pageToken string
	finished  bool
}

// page holds the outcome of decoding one fetched page. Decode failures do
// not stop the traversal; they are collected here and batched into a single
// AggregateDecodeError by the service once the traversal ends.
type page struct {
	instances  []Instance
	decodeErrs []error
}

// next fetches and decodes the next page. It returns (nil, nil) once the
// traversal is finished. A transport failure or a missing items envelope
// ends the traversal immediately.
func (p *pager) next(ctx context.Context) (*page, error) {
	if p.finished {
		return nil, nil
	}

	pageURL := p.url()
	p.logger.Debug().Str("url", pageURL).Msg("Fetching page")

	doc, err := p.transport.GetJSON(ctx, p.authToken, pageURL)
	if err != nil {
		p.finished = true
		return nil, err
	}
	pagesFetchedTotal.Inc()

	items, ok := doc["items"].(map[string]interface{})
	if !ok {
		p.finished = true
		return nil, &transport.Error{URL: pageURL, Message: ErrNoItems.Error(), Err: ErrNoItems}
	}

	result := p.flatten(items)

	// Chain to the next page, or stop
	if token, ok := doc["nextPageToken"].(string); ok && token != "" {
		p.pageToken = token
	} else {
		p.finished = true
	}

	return result, nil
}

// flatten walks the zone-keyed page structure and decodes every raw
// instance object. Zones without an instances array contribute nothing.
// Zone keys are visited in sorted order so output is deterministic.
func (p *pager) flatten(items map[string]interface{}) *page {
	zones := make([]string, 0, len(items))
	for zone := range items {
		zones = append(zones, zone)
	}
	sort.Strings(zones)

	result := &page{}
	for _, zone := range zones {
		zoneData, ok := items[zone].(map[string]interface{})
		if !ok {
			continue
		}
		rawInstances, ok := zoneData["instances"].([]interface{})
		if !ok {
			// Zones with no instances carry a warning object instead
			continue
		}

		for _, raw := range rawInstances {
			obj, ok := raw.(map[string]interface{})
			if !ok {
				err := fmt.Errorf("zone %s: instance entry is not an object", zone)
				p.logger.Warn().Str("zone", zone).Msg("Instance entry is not an object")
				decodeErrorsTotal.Inc()
				result.decodeErrs = append(result.decodeErrs, err)
				continue
			}

			inst, err := DecodeInstance(obj)
			if err != nil {
				p.logger.Warn().
					Err(err).
					Str("zone", zone).
					Msg("Record failed to decode")
				decodeErrorsTotal.Inc()
				result.decodeErrs = append(result.decodeErrs, fmt.Errorf("zone %s: %w", zone, err))
				continue
			}
			result.instances = append(result.instances, inst)
		}
	}

	return result
}

// url builds the aggregated-listing URL for the current cursor position.
func (p *pager) url() string {
	u := fmt.Sprintf("%s/projects/%s/aggregated/instances", p.baseURL, p.project)

	q := url.Values{}
	if p.filter != "" {
		q.Set("filter", fmt.Sprintf("(name eq .*%s.*)", p.filter))
	}
	if p.pageToken != "" {
		q.Set("pageToken", p.pageToken)
	}
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// IsNoItems reports whether err is the missing-items envelope failure.
func IsNoItems(err error) bool {
	return errors.Is(err, ErrNoItems)
}
