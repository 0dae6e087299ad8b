package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/goccy/date-detector/detector"
	"github.com/goccy/date-detector/internal/logger"
	"github.com/goccy/date-detector/internal/sample"
	"github.com/goccy/date-detector/interpreter"
	"github.com/goccy/date-detector/types"
)

const (
	datesInterpretEndpoint     = "/v1/dates:interpret"
	datesFormatEndpoint        = "/v1/dates:format"
	formatsDetectEndpoint      = "/v1/formats:detect"
	formatsBatchDetectEndpoint = "/v1/formats:batchDetect"
	formatsDetectAvroEndpoint  = "/v1/formats:detectAvro"
	formatsDetectArrowEndpoint = "/v1/formats:detectArrow"
	catalogsEndpoint           = "/v1/catalogs"
	catalogEndpoint            = "/v1/catalogs/{catalogId}"
)

const maxSampleBodySize int64 = 64 << 20

type handler struct {
	HTTPMethod string
	Path       string
	Handler    http.Handler
}

var handlers = []*handler{
	{HTTPMethod: http.MethodPost, Path: datesInterpretEndpoint, Handler: &datesInterpretHandler{}},
	{HTTPMethod: http.MethodPost, Path: datesFormatEndpoint, Handler: &datesFormatHandler{}},
	{HTTPMethod: http.MethodPost, Path: formatsDetectEndpoint, Handler: &formatsDetectHandler{}},
	{HTTPMethod: http.MethodPost, Path: formatsBatchDetectEndpoint, Handler: &formatsBatchDetectHandler{}},
	{HTTPMethod: http.MethodPost, Path: formatsDetectAvroEndpoint, Handler: &formatsDetectSampleHandler{read: sample.AvroColumn}},
	{HTTPMethod: http.MethodPost, Path: formatsDetectArrowEndpoint, Handler: &formatsDetectSampleHandler{read: sample.ArrowColumn}},
	{HTTPMethod: http.MethodGet, Path: catalogsEndpoint, Handler: &catalogsListHandler{}},
	{HTTPMethod: http.MethodGet, Path: catalogEndpoint, Handler: &catalogsGetHandler{}},
	{HTTPMethod: http.MethodPut, Path: catalogEndpoint, Handler: &catalogsPutHandler{}},
	{HTTPMethod: http.MethodDelete, Path: catalogEndpoint, Handler: &catalogsDeleteHandler{}},
}

func encodeResponse(ctx context.Context, w http.ResponseWriter, response interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.Logger(ctx).Error("failed to encode response", zap.Error(err))
	}
}

func decodeRequest(r *http.Request, v interface{}) *ServerError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errInvalid(fmt.Sprintf("failed to decode request body: %s", err))
	}
	return nil
}

// examples maps JSON null to the empty string, which the detector treats as
// an absent example.
func examples(dates []*string) []string {
	ret := make([]string, 0, len(dates))
	for _, date := range dates {
		if date == nil {
			ret = append(ret, "")
			continue
		}
		ret = append(ret, *date)
	}
	return ret
}

type datesInterpretHandler struct{}

type datesInterpretRequest struct {
	Text       string `json:"text"`
	Pattern    string `json:"pattern"`
	ForceUTC   bool   `json:"forceUtc"`
	ForceLocal bool   `json:"forceLocal"`
	TimeZone   string `json:"timeZone"`
}

type datesInterpretResponse struct {
	Value *types.DateValue `json:"value"`
}

func (h *datesInterpretHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	var req datesInterpretRequest
	if err := decodeRequest(r, &req); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	res, err := h.Handle(ctx, server, &req)
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *datesInterpretHandler) Handle(ctx context.Context, server *Server, r *datesInterpretRequest) (*datesInterpretResponse, *ServerError) {
	loc := server.location
	if r.TimeZone != "" {
		l, err := time.LoadLocation(r.TimeZone)
		if err != nil {
			return nil, errInvalidAt("timeZone", fmt.Sprintf("unknown time zone %s", r.TimeZone))
		}
		loc = l
	}
	value, err := interpreter.Interpret(r.Text, r.Pattern, types.Options{
		ForceUTC:   r.ForceUTC,
		ForceLocal: r.ForceLocal,
		Location:   loc,
	})
	if err != nil {
		if interpreter.IsEmpty(err) {
			return &datesInterpretResponse{}, nil
		}
		return nil, errInvalidAt("text", err.Error())
	}
	return &datesInterpretResponse{Value: value}, nil
}

type datesFormatHandler struct{}

type datesFormatRequest struct {
	Time    time.Time `json:"time"`
	Pattern string    `json:"pattern"`
}

type datesFormatResponse struct {
	Text string `json:"text"`
}

func (h *datesFormatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req datesFormatRequest
	if err := decodeRequest(r, &req); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	res, err := h.Handle(ctx, &req)
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *datesFormatHandler) Handle(ctx context.Context, r *datesFormatRequest) (*datesFormatResponse, *ServerError) {
	text, err := interpreter.FormatDate(r.Time, r.Pattern)
	if err != nil {
		return nil, errInvalidAt("pattern", err.Error())
	}
	return &datesFormatResponse{Text: text}, nil
}

type formatsDetectHandler struct{}

type formatsDetectRequest struct {
	Dates     []*string `json:"dates"`
	Patterns  []string  `json:"patterns"`
	CatalogID string    `json:"catalogId"`
}

type formatsDetectResponse struct {
	Patterns []string `json:"patterns"`
}

func (h *formatsDetectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	var req formatsDetectRequest
	if err := decodeRequest(r, &req); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	res, err := h.Handle(ctx, server, &req)
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *formatsDetectHandler) Handle(ctx context.Context, server *Server, r *formatsDetectRequest) (*formatsDetectResponse, *ServerError) {
	patterns, err := server.resolvePatterns(ctx, r.Patterns, r.CatalogID)
	if err != nil {
		return nil, err
	}
	return &formatsDetectResponse{Patterns: detector.Detect(examples(r.Dates), patterns)}, nil
}

type formatsBatchDetectHandler struct{}

type formatsBatchDetectRequest struct {
	Batches []*formatsDetectRequest `json:"batches"`
}

type formatsBatchDetectResponse struct {
	Results []*formatsDetectResponse `json:"results"`
}

func (h *formatsBatchDetectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	var req formatsBatchDetectRequest
	if err := decodeRequest(r, &req); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	res, err := h.Handle(ctx, server, &req)
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *formatsBatchDetectHandler) Handle(ctx context.Context, server *Server, r *formatsBatchDetectRequest) (*formatsBatchDetectResponse, *ServerError) {
	batches := make([]detector.Batch, 0, len(r.Batches))
	for idx, batch := range r.Batches {
		if batch == nil {
			return nil, errInvalidAt(fmt.Sprintf("batches[%d]", idx), "batch must not be null")
		}
		patterns, err := server.resolvePatterns(ctx, batch.Patterns, batch.CatalogID)
		if err != nil {
			err.Location = fmt.Sprintf("batches[%d]", idx)
			return nil, err
		}
		batches = append(batches, detector.Batch{Dates: examples(batch.Dates), Patterns: patterns})
	}
	results, err := detector.DetectBatches(ctx, batches)
	if err != nil {
		return nil, errInternalError(err.Error())
	}
	res := &formatsBatchDetectResponse{Results: make([]*formatsDetectResponse, 0, len(results))}
	for _, patterns := range results {
		res.Results = append(res.Results, &formatsDetectResponse{Patterns: patterns})
	}
	return res, nil
}

type formatsDetectSampleHandler struct {
	read func(io.Reader, string) ([]string, error)
}

type formatsDetectSampleRequest struct {
	body      io.Reader
	column    string
	patterns  []string
	catalogID string
}

func (h *formatsDetectSampleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	query := r.URL.Query()
	res, err := h.Handle(ctx, server, &formatsDetectSampleRequest{
		body:      http.MaxBytesReader(w, r.Body, maxSampleBodySize),
		column:    query.Get("column"),
		patterns:  query["pattern"],
		catalogID: query.Get("catalogId"),
	})
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *formatsDetectSampleHandler) Handle(ctx context.Context, server *Server, r *formatsDetectSampleRequest) (*formatsDetectResponse, *ServerError) {
	if r.column == "" {
		return nil, errInvalidAt("column", "column is required")
	}
	patterns, serr := server.resolvePatterns(ctx, r.patterns, r.catalogID)
	if serr != nil {
		return nil, serr
	}
	dates, err := h.read(r.body, r.column)
	if err != nil {
		return nil, errInvalidAt("column", err.Error())
	}
	logger.Logger(ctx).Debug("read sample", zap.String("column", r.column), zap.Int("rows", len(dates)))
	return &formatsDetectResponse{Patterns: detector.Detect(dates, patterns)}, nil
}

type catalogsListHandler struct{}

type catalogsListResponse struct {
	Catalogs []*types.Catalog `json:"catalogs"`
}

func (h *catalogsListHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	res, err := h.Handle(ctx, server)
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *catalogsListHandler) Handle(ctx context.Context, server *Server) (*catalogsListResponse, *ServerError) {
	catalogs, err := server.catalogRepo.FindAllCatalogs(ctx, nil)
	if err != nil {
		return nil, errInternalError(err.Error())
	}
	return &catalogsListResponse{Catalogs: catalogs}, nil
}

type catalogsGetHandler struct{}

func (h *catalogsGetHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	encodeResponse(ctx, w, catalogFromContext(ctx))
}

type catalogsPutHandler struct{}

type catalogsPutRequest struct {
	server  *Server
	catalog *types.Catalog
}

func (h *catalogsPutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	var catalog types.Catalog
	if err := decodeRequest(r, &catalog); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	catalog.ID = mux.Vars(r)["catalogId"]
	res, err := h.Handle(ctx, &catalogsPutRequest{
		server:  server,
		catalog: &catalog,
	})
	if err != nil {
		errorResponse(ctx, w, err)
		return
	}
	encodeResponse(ctx, w, res)
}

func (h *catalogsPutHandler) Handle(ctx context.Context, r *catalogsPutRequest) (*types.Catalog, *ServerError) {
	if err := r.server.validate.Struct(r.catalog); err != nil {
		return nil, errInvalidAt("patterns", err.Error())
	}
	var err error
	if catalogFromContext(ctx) == nil {
		err = r.server.catalogRepo.AddCatalog(ctx, nil, r.catalog)
	} else {
		err = r.server.catalogRepo.UpdateCatalog(ctx, nil, r.catalog)
	}
	if err != nil {
		return nil, errInternalError(err.Error())
	}
	return r.catalog, nil
}

type catalogsDeleteHandler struct{}

func (h *catalogsDeleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	server := serverFromContext(ctx)
	if err := h.Handle(ctx, server, catalogFromContext(ctx)); err != nil {
		errorResponse(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *catalogsDeleteHandler) Handle(ctx context.Context, server *Server, catalog *types.Catalog) *ServerError {
	deleted, err := server.catalogRepo.DeleteCatalog(ctx, nil, catalog.ID)
	if err != nil {
		return errInternalError(err.Error())
	}
	if !deleted {
		return errNotFound(fmt.Sprintf("catalog %s is not found", catalog.ID))
	}
	return nil
}
