// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrEmpty is returned when a response carries no non-empty bucket.
var ErrEmpty = errors.New("catalog: response contains no entries")

type shopResponse struct {
	Status int                        `json:"status"`
	Error  string                     `json:"error"`
	Data   map[string]json.RawMessage `json:"data"`
}

type bucketPayload struct {
	Entries []entryPayload `json:"entries"`
}

type entryPayload struct {
	FinalPrice *int          `json:"finalPrice"`
	Items      []itemPayload `json:"items"`
	BRItems    []itemPayload `json:"brItems"`
}

type itemPayload struct {
	Name   string `json:"name"`
	Images struct {
		Icon      string `json:"icon"`
		SmallIcon string `json:"smallIcon"`
	} `json:"images"`
}

// Parse builds a snapshot from a shop response body.
func Parse(body []byte, fetchedAt time.Time) (*Snapshot, error) {
	var response shopResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("catalog: decoding response: %w", err)
	}
	if response.Error != "" {
		return nil, &APIError{StatusCode: response.Status, Message: response.Error}
	}
	if response.Data == nil {
		return nil, fmt.Errorf("catalog: response has no data object")
	}

	snapshot := &Snapshot{FetchedAt: fetchedAt}
	for _, bucket := range Buckets {
		raw, ok := response.Data[string(bucket)]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			continue
		}
		var payload bucketPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("catalog: decoding bucket %q: %w", bucket, err)
		}
		if len(payload.Entries) == 0 {
			continue
		}

		category := Category{
			Name:    bucket.DisplayName(),
			Entries: make([]Entry, 0, len(payload.Entries)),
		}
		for index, raw := range payload.Entries {
			entry, err := raw.entry()
			if err != nil {
				return nil, fmt.Errorf("catalog: bucket %q entry %d: %w", bucket, index, err)
			}
			category.Entries = append(category.Entries, entry)
		}
		snapshot.Categories = append(snapshot.Categories, category)
	}

	if len(snapshot.Categories) == 0 {
		return nil, ErrEmpty
	}
	if err := snapshot.Validate(); err != nil {
		return nil, err
	}
	return snapshot, nil
}

func (p entryPayload) entry() (Entry, error) {
	items := p.Items
	if len(items) == 0 {
		items = p.BRItems
	}
	if len(items) == 0 {
		return Entry{}, errors.New("entry has no items")
	}
	if items[0].Name == "" {
		return Entry{}, errors.New("first item has no name")
	}
	if p.FinalPrice == nil {
		return Entry{}, errors.New("entry has no finalPrice")
	}

	icon := items[0].Images.Icon
	if icon == "" {
		icon = items[0].Images.SmallIcon
	}
	return Entry{
		ItemName: items[0].Name,
		IconURL:  icon,
		Price:    *p.FinalPrice,
	}, nil
}
