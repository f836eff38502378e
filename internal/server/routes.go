package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"bidline/internal/domain"
	"bidline/internal/repo"
)

func registerCatalog(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-catalog",
		Method:      http.MethodGet,
		Path:        "/catalog",
		Summary:     "List catalog SKUs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.CandidateSKU `json:"body"`
	}, error) {
		items, err := cfg.Engine.Repo.ListSKUs(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.CandidateSKU `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-sku",
		Method:      http.MethodGet,
		Path:        "/catalog/{sku}",
		Summary:     "Get catalog SKU",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		SKU string `path:"sku"`
	}) (*struct {
		Body domain.CandidateSKU `json:"body"`
	}, error) {
		s, err := cfg.Engine.Repo.GetSKU(ctx, input.SKU)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.CandidateSKU `json:"body"`
		}{Body: s}, nil
	})
}

func registerRFPs(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-rfps",
		Method:      http.MethodGet,
		Path:        "/rfps",
		Summary:     "List RFPs",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body []domain.RFPRequest `json:"body"`
	}, error) {
		items, err := cfg.Engine.Repo.ListRFPs(ctx)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.RFPRequest `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-rfp",
		Method:        http.MethodPost,
		Path:          "/rfps",
		Summary:       "Create RFP",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ActorID string            `header:"X-Actor-Id"`
		Body    domain.RFPRequest `json:"body"`
	}) (*struct {
		Body domain.RFPRequest `json:"body"`
	}, error) {
		created, err := cfg.Engine.CreateRFP(ctx, input.Body, actorOrDefault(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RFPRequest `json:"body"`
		}{Body: created}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-rfp",
		Method:      http.MethodGet,
		Path:        "/rfps/{rfp_id}",
		Summary:     "Get RFP",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RFPID string `path:"rfp_id"`
	}) (*struct {
		Body domain.RFPRequest `json:"body"`
	}, error) {
		rfp, err := cfg.Engine.Repo.GetRFP(ctx, input.RFPID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.RFPRequest `json:"body"`
		}{Body: rfp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "process-rfp",
		Method:        http.MethodPost,
		Path:          "/rfps/{rfp_id}/process",
		Summary:       "Run the bid workflow for an RFP",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RFPID   string `path:"rfp_id"`
		ActorID string `header:"X-Actor-Id"`
	}) (*struct {
		Body domain.Run `json:"body"`
	}, error) {
		run, err := cfg.Engine.ProcessRFP(ctx, input.RFPID, actorOrDefault(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Run `json:"body"`
		}{Body: run}, nil
	})
}

func registerRuns(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "list-runs",
		Method:      http.MethodGet,
		Path:        "/runs",
		Summary:     "List runs",
	}, func(ctx context.Context, input *struct {
		RFPID    string `query:"rfp_id"`
		Status   string `query:"status"`
		Decision string `query:"decision"`
		Limit    int    `query:"limit"`
	}) (*struct {
		Body []domain.Run `json:"body"`
	}, error) {
		runs, err := cfg.Engine.Repo.ListRuns(ctx, repo.RunFilters{
			RFPID:    input.RFPID,
			Status:   input.Status,
			Decision: input.Decision,
			Limit:    input.Limit,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Run `json:"body"`
		}{Body: runs}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-run",
		Method:      http.MethodGet,
		Path:        "/runs/{run_id}",
		Summary:     "Get run",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body domain.Run `json:"body"`
	}, error) {
		run, err := cfg.Engine.Repo.GetRun(ctx, input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Run `json:"body"`
		}{Body: run}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "run-events",
		Method:      http.MethodGet,
		Path:        "/runs/{run_id}/events",
		Summary:     "Run audit events",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		RunID string `path:"run_id"`
	}) (*struct {
		Body []domain.Event `json:"body"`
	}, error) {
		if _, err := cfg.Engine.Repo.GetRun(ctx, input.RunID); err != nil {
			return nil, handleError(err)
		}
		evts, err := cfg.Engine.Repo.RunEvents(ctx, input.RunID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []domain.Event `json:"body"`
		}{Body: evts}, nil
	})
}

type ratesResponse struct {
	Rates map[string]float64 `json:"rates"`
}

func registerRates(api huma.API, cfg Config) {
	huma.Register(api, huma.Operation{
		OperationID: "get-rates",
		Method:      http.MethodGet,
		Path:        "/rates",
		Summary:     "Current commodity rates",
	}, func(ctx context.Context, _ *struct{}) (*struct {
		Body ratesResponse `json:"body"`
	}, error) {
		return &struct {
			Body ratesResponse `json:"body"`
		}{Body: ratesResponse{Rates: cfg.Engine.Config().RateSnapshot()}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-rate",
		Method:      http.MethodPut,
		Path:        "/rates",
		Summary:     "Update a commodity rate",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		ActorID string `header:"X-Actor-Id"`
		Body    struct {
			Material  string  `json:"material"`
			RateUSDMT float64 `json:"rate_usd_mt"`
		} `json:"body"`
	}) (*struct {
		Body ratesResponse `json:"body"`
	}, error) {
		next, err := cfg.Engine.UpdateRate(ctx, cfg.DeskID, input.Body.Material, input.Body.RateUSDMT, actorOrDefault(input.ActorID))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ratesResponse `json:"body"`
		}{Body: ratesResponse{Rates: next.RateSnapshot()}}, nil
	})
}
