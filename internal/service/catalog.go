package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// Catalog derives the pickup dates, locations and time slots from the
// schedule table.  Nothing is memoized: every call re-reads the schedule,
// so edits made by the organisers show up on the next menu.
type Catalog struct {
	schedule ScheduleLedger
}

// NewCatalog returns a Catalog reading from schedule.
func NewCatalog(schedule ScheduleLedger) *Catalog { return &Catalog{schedule: schedule} }

// Dates returns the distinct non-blank dates in ascending order.
func (c *Catalog) Dates(ctx context.Context) ([]string, error) {
	entries, err := c.schedule.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog dates: %w", err)
	}
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Date != "" {
			set[e.Date] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// Entries returns all schedule rows for date in storage order.
func (c *Catalog) Entries(ctx context.Context, date string) ([]model.ScheduleEntry, error) {
	entries, err := c.schedule.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("catalog entries for %s: %w", date, err)
	}
	var out []model.ScheduleEntry
	for _, e := range entries {
		if e.Date == date {
			out = append(out, e)
		}
	}
	return out, nil
}

// Locations returns the distinct locations offered on date, sorted.
func (c *Catalog) Locations(ctx context.Context, date string) ([]string, error) {
	entries, err := c.Entries(ctx, date)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.Location != "" {
			set[e.Location] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

// Times returns the distinct time slots at location on date, sorted.
func (c *Catalog) Times(ctx context.Context, date, location string) ([]string, error) {
	entries, err := c.Entries(ctx, date)
	if err != nil {
		return nil, err
	}
	set := map[string]struct{}{}
	for _, e := range entries {
		if e.Location != location {
			continue
		}
		for _, t := range e.TimeSlots() {
			set[t] = struct{}{}
		}
	}
	return sortedKeys(set), nil
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
