// Package normalize converts the heterogeneous upstream JSON shapes
// (WordPress, WooCommerce, LearnDash, FluentCRM) into canonical model
// records. All field-name tolerance lives here, at the system boundary,
// so the engine never branches on field presence.
package normalize

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"gtevents/internal/model"
)

type Options struct {
	DefaultCapacity int
	Timezone        string
}

// Event builds a canonical event from a raw WordPress record. The date may
// live under "date", "event_date", or "meta.event_date"; capacity and
// product id likewise under the record or its meta block.
func Event(obj map[string]any, opts Options) (model.Event, error) {
	if obj == nil {
		return model.Event{}, errors.New("nil event record")
	}
	meta := mapField(obj, "meta")

	id := stringField(obj, "id")
	if id == "" {
		return model.Event{}, errors.New("event record missing id")
	}

	title := titleField(obj)
	dateRaw := firstString(obj, meta, "date", "event_date")
	var date time.Time
	if dateRaw != "" {
		parsed, err := ParseDate(dateRaw, location(opts.Timezone))
		if err != nil {
			return model.Event{}, fmt.Errorf("event %s: parse date: %w", id, err)
		}
		date = parsed.UTC()
	}

	capacity := firstInt(obj, meta, "capacity")
	if capacity <= 0 {
		capacity = opts.DefaultCapacity
	}

	ev := model.Event{
		ID:           id,
		ProductID:    firstString(obj, meta, "product_id"),
		Title:        title,
		TrainingType: TrainingType(title),
		Date:         date,
		Location:     firstString(obj, meta, "location"),
		Instructor:   firstString(obj, meta, "instructor"),
		Capacity:     capacity,
		Enrolled:     firstInt(obj, meta, "enrolled"),
		Price:        firstFloat(obj, meta, "price"),
		Instruments:  stringList(obj, "instruments"),
	}
	return ev, nil
}

// Order builds a canonical order from a raw WooCommerce record. Line items
// appear under either "line_items" or "items" depending on the upstream
// variant; a missing quantity counts as zero.
func Order(obj map[string]any) (model.Order, error) {
	if obj == nil {
		return model.Order{}, errors.New("nil order record")
	}
	id := stringField(obj, "id")
	if id == "" {
		return model.Order{}, errors.New("order record missing id")
	}

	var created time.Time
	if raw := firstString(obj, nil, "date_created", "created", "date"); raw != "" {
		if parsed, err := ParseDate(raw, time.UTC); err == nil {
			created = parsed.UTC()
		}
	}

	rawItems, ok := obj["line_items"].([]any)
	if !ok {
		rawItems, _ = obj["items"].([]any)
	}
	items := make([]model.LineItem, 0, len(rawItems))
	for _, ri := range rawItems {
		im, ok := ri.(map[string]any)
		if !ok {
			continue
		}
		items = append(items, model.LineItem{
			Name:      stringField(im, "name"),
			ProductID: stringField(im, "product_id"),
			Quantity:  intField(im, "quantity"),
		})
	}

	billing := mapField(obj, "billing")
	return model.Order{
		ID:      id,
		Created: created,
		Status:  stringField(obj, "status"),
		Items:   items,
		Billing: model.Billing{
			FirstName: stringField(billing, "first_name"),
			LastName:  stringField(billing, "last_name"),
			Email:     stringField(billing, "email"),
		},
	}, nil
}

// Group builds a canonical enrollment group from a raw LearnDash record.
// The event linkage may live at the top level or under meta.
func Group(obj map[string]any) (model.Group, error) {
	if obj == nil {
		return model.Group{}, errors.New("nil group record")
	}
	id := stringField(obj, "id")
	if id == "" {
		return model.Group{}, errors.New("group record missing id")
	}
	meta := mapField(obj, "meta")
	g := model.Group{
		ID:      id,
		EventID: firstString(obj, meta, "event_id"),
		Name:    titleField(obj),
	}
	for _, v := range stringList(obj, "user_ids") {
		g.UserIDs = append(g.UserIDs, v)
	}
	return g, nil
}

func Contact(obj map[string]any) (model.Contact, error) {
	if obj == nil {
		return model.Contact{}, errors.New("nil contact record")
	}
	id := stringField(obj, "id")
	if id == "" {
		return model.Contact{}, errors.New("contact record missing id")
	}
	return model.Contact{
		ID:        id,
		Email:     stringField(obj, "email"),
		FirstName: stringField(obj, "first_name"),
		LastName:  stringField(obj, "last_name"),
	}, nil
}

// StudentsFromOrders synthesizes enrollment records from order billing
// identity. Used as the fallback roster when no group data exists.
func StudentsFromOrders(orders []model.Order) []model.Student {
	out := make([]model.Student, 0, len(orders))
	for _, o := range orders {
		name := strings.TrimSpace(o.Billing.FirstName + " " + o.Billing.LastName)
		if name == "" && o.Billing.Email == "" {
			continue
		}
		out = append(out, model.Student{
			Name:   name,
			Email:  o.Billing.Email,
			Source: "woocommerce",
		})
	}
	return out
}

func location(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	return time.UTC
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

func ParseDate(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.New("empty date")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported date format: %q", value)
}

// field helpers tolerate numeric ids and string numbers, both common in
// WordPress REST payloads.

func mapField(obj map[string]any, key string) map[string]any {
	if obj == nil {
		return nil
	}
	m, _ := obj[key].(map[string]any)
	return m
}

func titleField(obj map[string]any) string {
	switch v := obj["title"].(type) {
	case string:
		return v
	case map[string]any:
		// WP rest api renders titles as {"rendered": "..."}
		return stringField(v, "rendered")
	}
	return stringField(obj, "name")
}

func stringField(obj map[string]any, key string) string {
	if obj == nil {
		return ""
	}
	switch v := obj[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		if v == float64(int64(v)) {
			return strconv.FormatInt(int64(v), 10)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	}
	return ""
}

func intField(obj map[string]any, key string) int {
	if obj == nil {
		return 0
	}
	switch v := obj[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func floatField(obj map[string]any, key string) float64 {
	if obj == nil {
		return 0
	}
	switch v := obj[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}

func firstString(obj, meta map[string]any, keys ...string) string {
	for _, key := range keys {
		if v := stringField(obj, key); v != "" {
			return v
		}
		if v := stringField(meta, key); v != "" {
			return v
		}
	}
	return ""
}

func firstInt(obj, meta map[string]any, keys ...string) int {
	for _, key := range keys {
		if v := intField(obj, key); v != 0 {
			return v
		}
		if v := intField(meta, key); v != 0 {
			return v
		}
	}
	return 0
}

func firstFloat(obj, meta map[string]any, keys ...string) float64 {
	for _, key := range keys {
		if v := floatField(obj, key); v != 0 {
			return v
		}
		if v := floatField(meta, key); v != 0 {
			return v
		}
	}
	return 0
}

func stringList(obj map[string]any, key string) []string {
	raw, _ := obj[key].([]any)
	if len(raw) == 0 {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
