package server

import (
	"context"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/joseph-ayodele/payables-tracker/internal/common"
	"github.com/joseph-ayodele/payables-tracker/internal/services/masterdata"
)

func (s *PayablesService) ListCategories(ctx context.Context, req *wrapperspb.BoolValue) (*structpb.Struct, error) {
	cats, err := s.masterdata.ListCategories(ctx, req.GetValue())
	if err != nil {
		return nil, err
	}
	out, err := toStruct(map[string]any{"categories": cats})
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type createCategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *PayablesService) CreateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in createCategoryRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	cat, err := s.masterdata.CreateCategory(ctx, in.Name, in.Description)
	if err != nil {
		return nil, err
	}
	out, err := toStruct(cat)
	if err != nil {
		return nil, common.InternalError(err.Error())
	}
	return out, nil
}

type lifecycleRequest struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Status string `json:"status"`
}

// SetLifecycle activates or inactivates a supplier, billed party, customer,
// category or payable.
func (s *PayablesService) SetLifecycle(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var in lifecycleRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}
	if err := s.masterdata.SetLifecycle(ctx, masterdata.Kind(in.Kind), in.ID, in.Status); err != nil {
		return nil, err
	}
	return &emptypb.Empty{}, nil
}
