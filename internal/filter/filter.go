// Package filter narrows already-fetched collections for the listing pages.
package filter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kafelog/kafelog-web/internal/domain"
)

// All is the category value that disables a filter.
const All = "all"

type CafeMode string

const (
	ModeAll    CafeMode = "all"
	ModeOpen   CafeMode = "open"
	ModeNearby CafeMode = "nearby"
)

// ParseCafeMode maps unknown values to ModeAll.
func ParseCafeMode(s string) CafeMode {
	switch CafeMode(s) {
	case ModeOpen, ModeNearby:
		return CafeMode(s)
	}
	return ModeAll
}

type CafeQuery struct {
	Search string
	Mode   CafeMode
}

// Fold lower-cases s with Turkish rules and maps dotless ı to i, so "KADI",
// "kadı" and "Kadi" compare equal.
func Fold(s string) string {
	return strings.ReplaceAll(cases.Lower(language.Turkish).String(s), "ı", "i")
}

type cafeEntry struct {
	business domain.Business
	name     string
	city     string
	district string
}

// CafeIndex holds the approved businesses of one fetched collection with their
// search fields folded once.
type CafeIndex struct {
	entries []cafeEntry
}

func NewCafeIndex(businesses []domain.Business) *CafeIndex {
	idx := &CafeIndex{entries: make([]cafeEntry, 0, len(businesses))}
	for _, b := range businesses {
		if b.Status != domain.BusinessApproved {
			continue
		}
		idx.entries = append(idx.entries, cafeEntry{
			business: b,
			name:     Fold(b.Name),
			city:     Fold(b.AddressObj.City),
			district: Fold(b.AddressObj.District),
		})
	}
	return idx
}

func (idx *CafeIndex) Len() int { return len(idx.entries) }

// Filter keeps cafes whose name, city or district contains the search term and
// that pass the mode. Nearby has no location source and passes everything.
func (idx *CafeIndex) Filter(q CafeQuery) []domain.Business {
	term := Fold(strings.TrimSpace(q.Search))
	out := make([]domain.Business, 0, len(idx.entries))
	for _, e := range idx.entries {
		if term != "" &&
			!strings.Contains(e.name, term) &&
			!strings.Contains(e.city, term) &&
			!strings.Contains(e.district, term) {
			continue
		}
		if q.Mode == ModeOpen && !e.business.IsOpenNow {
			continue
		}
		out = append(out, e.business)
	}
	return out
}

func Events(events []domain.Event, category string) []domain.Event {
	if category == "" || category == All {
		return events
	}
	out := make([]domain.Event, 0, len(events))
	for _, e := range events {
		if e.EventType == category {
			out = append(out, e)
		}
	}
	return out
}

func Campaigns(campaigns []domain.Campaign, campaignType string) []domain.Campaign {
	if campaignType == "" || campaignType == All {
		return campaigns
	}
	out := make([]domain.Campaign, 0, len(campaigns))
	for _, c := range campaigns {
		if string(c.CampaignType) == campaignType {
			out = append(out, c)
		}
	}
	return out
}

// Featured returns up to the first n events.
func Featured(events []domain.Event, n int) []domain.Event {
	if n < 0 {
		n = 0
	}
	if len(events) < n {
		return events
	}
	return events[:n]
}
