// Package coffee is the coffee-tracker plugin: it lists the active bags of a
// Coffee Tracker API deployment and logs a cup when one is clicked.
package coffee

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"menubar/internal/fetch"
)

// Wire formats of the Coffee Tracker API. Neither carries a timezone.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// Bag is an active bag of coffee.
type Bag struct {
	Key    string
	Brand  string
	Name   string
	Weight float64
	Start  time.Time
}

func (b Bag) String() string {
	return b.Brand + " - " + b.Name
}

// Use is one logged cup.
type Use struct {
	Key   string
	BagID string
	When  time.Time
}

// BagDraft is a bag that has not been submitted yet.
type BagDraft struct {
	Brand  string
	Name   string
	Weight float64
	Start  time.Time
}

// MarshalJSON encodes the new_bag request body.
func (d BagDraft) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Brand  string  `json:"brand"`
		Name   string  `json:"name"`
		Weight float64 `json:"weight"`
		Start  string  `json:"start"`
	}{d.Brand, d.Name, d.Weight, d.Start.Format(DateLayout)})
}

// Validate reports the first missing or out-of-range field.
func (d BagDraft) Validate() error {
	switch {
	case d.Brand == "":
		return fmt.Errorf("brand: %w", fetch.ErrMissingField)
	case d.Name == "":
		return fmt.Errorf("name: %w", fetch.ErrMissingField)
	case d.Weight <= 0:
		return fmt.Errorf("weight: must be positive, got %s: %w", formatWeight(d.Weight), fetch.ErrInvalidField)
	case d.Start.IsZero():
		return fmt.Errorf("start: %w", fetch.ErrMissingField)
	}
	return nil
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', -1, 64)
}

// decodeBags decodes the active_bags/ body, an object keyed by bag key.
// Record order follows the document.
func decodeBags(body []byte) ([]Bag, error) {
	var bags []Bag
	err := fetch.EachMember(body, func(key string, raw json.RawMessage) error {
		b, err := decodeBag(key, raw)
		if err != nil {
			return err
		}
		bags = append(bags, b)
		return nil
	})
	return bags, err
}

func decodeBag(key string, raw []byte) (Bag, error) {
	obj, err := fetch.DecodeObject(key, raw)
	if err != nil {
		return Bag{}, err
	}
	b := Bag{Key: key}
	var start string
	if err := obj.Required("brand", &b.Brand); err != nil {
		return Bag{}, err
	}
	if err := obj.Required("name", &b.Name); err != nil {
		return Bag{}, err
	}
	if err := obj.Required("weight", &b.Weight); err != nil {
		return Bag{}, err
	}
	if err := obj.Required("start", &start); err != nil {
		return Bag{}, err
	}
	if b.Start, err = time.ParseInLocation(DateLayout, start, time.Local); err != nil {
		return Bag{}, &fetch.DecodeError{Record: key, Field: "start", Err: fmt.Errorf("%w: %v", fetch.ErrInvalidField, err)}
	}

	// Bag bookkeeping the menu does not show.
	var active bool
	var finish string
	if _, err := obj.Optional("active", &active); err != nil {
		return Bag{}, err
	}
	if _, err := obj.Optional("finish", &finish); err != nil {
		return Bag{}, err
	}
	// The key is repeated inside the record by some deployments.
	var inner string
	if ok, err := obj.Optional("key", &inner); err != nil {
		return Bag{}, err
	} else if ok && inner != key {
		return Bag{}, &fetch.DecodeError{Record: key, Field: "key", Err: fmt.Errorf("%w: %q does not match", fetch.ErrInvalidField, inner)}
	}
	return b, obj.Strict()
}

// decodeUses decodes the uses/ body, an object keyed by use key.
func decodeUses(body []byte) ([]Use, error) {
	var uses []Use
	err := fetch.EachMember(body, func(key string, raw json.RawMessage) error {
		obj, err := fetch.DecodeObject(key, raw)
		if err != nil {
			return err
		}
		u := Use{Key: key}
		var when string
		if err := obj.Required("bag_id", &u.BagID); err != nil {
			return err
		}
		if err := obj.Required("datetime", &when); err != nil {
			return err
		}
		if u.When, err = parseDateTime(when); err != nil {
			return &fetch.DecodeError{Record: key, Field: "datetime", Err: fmt.Errorf("%w: %v", fetch.ErrInvalidField, err)}
		}
		obj.Known("key")
		if err := obj.Strict(); err != nil {
			return err
		}
		uses = append(uses, u)
		return nil
	})
	return uses, err
}

// parseDateTime accepts the API's layout with or without fractional seconds.
func parseDateTime(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateTimeLayout, s, time.Local)
	if err == nil {
		return t, nil
	}
	if t, err2 := time.ParseInLocation("2006-01-02T15:04:05.999999999", s, time.Local); err2 == nil {
		return t, nil
	}
	return time.Time{}, err
}
