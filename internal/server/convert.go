package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
)

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, fmt.Errorf("convert %T: %w", v, err)
	}
	return out, nil
}

// decode fills v from s. Failures are InvalidArgument statuses.
func decode(s *structpb.Struct, v any) error {
	if s == nil {
		s = &structpb.Struct{}
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return common.InvalidArgumentErrorf("request: %v", err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return common.InvalidArgumentErrorf("request: %v", err)
	}
	return nil
}

type window struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// dates parses the optional YYYY-MM-DD bounds.
func (w window) dates() (from, to *civil.Date, err error) {
	if from, err = optionalDate("from_date", w.FromDate); err != nil {
		return nil, nil, err
	}
	if to, err = optionalDate("to_date", w.ToDate); err != nil {
		return nil, nil, err
	}
	return from, to, nil
}

func optionalDate(field, raw string) (*civil.Date, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	d, err := civil.ParseDate(raw)
	if err != nil {
		return nil, common.InvalidArgumentErrorf("%s must be YYYY-MM-DD", field)
	}
	return &d, nil
}
