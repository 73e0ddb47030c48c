package bankcore

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type balanceJSONResp struct {
	Balance decimal.Decimal `json:"balance"`
}

type transactionJSONResp struct {
	Date   string `json:"date"`
	Kind   string `json:"kind"`
	Amount string `json:"amount"`
}

func NewHTTPHandler(svc Service, log *zerolog.Logger) http.Handler {
	hndlr := &httpHandler{
		Svc: svc,
		Log: log,
	}
	mux := chi.NewMux()
	mux.NotFound(HTTPNotFound)
	mux.Route("/accounts", func(r chi.Router) {
		r.Post("/", hndlr.OpenAccount)
		r.Get("/", hndlr.Summary)
		r.Route("/{acctNum:[0-9]+}", func(rr chi.Router) {
			rr.Post("/transactions", hndlr.AddTransaction)
			rr.Get("/transactions", hndlr.Transactions)
			rr.Post("/close", hndlr.InterestAndFees)
			rr.Get("/statement", hndlr.Statement)
		})
	})

	return mux
}

type httpHandler struct {
	Svc Service
	Log *zerolog.Logger
}

func (h *httpHandler) acctNum(r *http.Request) (int64, error) {
	n, err := strconv.ParseInt(chi.URLParam(r, "acctNum"), 10, 64)
	if err != nil {
		return 0, ErrBadRequest{Fields: map[string]string{"acctNum": "invalid format"}}
	}
	return n, nil
}

func (h *httpHandler) OpenAccount(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "open_account").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req OpenAccountReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "open_account").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	sum, err := h.Svc.OpenAccount(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err = json.NewEncoder(w).Encode(sum); err != nil {
		h.Log.Err(err).Str("method", "open_account").Msg("error encoding response")
	}
}

func (h *httpHandler) AddTransaction(w http.ResponseWriter, r *http.Request) {
	buf, err := io.ReadAll(r.Body)
	defer r.Body.Close()
	if err != nil {
		h.Log.Err(err).Str("method", "add_transaction").Msg("error reading HTTP request")
		WriteHTTPError(w, ErrInternalServer)
		return
	}
	var req ChargeReq
	if err = json.Unmarshal(buf, &req); err != nil {
		h.Log.Err(err).Str("method", "add_transaction").Msg("error unmarshalling JSON")
		WriteHTTPError(w, ErrBadRequest{Fields: map[string]string{"request body": "malformed JSON"}})
		return
	}
	if req.AcctNum, err = h.acctNum(r); err != nil {
		WriteHTTPError(w, err)
		return
	}
	bal, err := h.Svc.AddTransaction(req)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	resp := balanceJSONResp{Balance: *bal}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Err(err).Str("method", "add_transaction").Msg("error encoding response")
	}
}

func (h *httpHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	num, err := h.acctNum(r)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	txns, err := h.Svc.Transactions(num)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	resp := make([]transactionJSONResp, 0, len(txns))
	for _, t := range txns {
		resp = append(resp, transactionJSONResp{
			Date:   t.Date.Format(dateLayout),
			Kind:   string(t.Kind),
			Amount: FormatAmount(t.Amount),
		})
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Err(err).Str("method", "transactions").Msg("error encoding response")
	}
}

func (h *httpHandler) InterestAndFees(w http.ResponseWriter, r *http.Request) {
	num, err := h.acctNum(r)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	bal, err := h.Svc.InterestAndFees(num)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}

	resp := balanceJSONResp{Balance: *bal}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(resp); err != nil {
		h.Log.Err(err).Str("method", "interest_and_fees").Msg("error encoding response")
	}
}

func (h *httpHandler) Summary(w http.ResponseWriter, r *http.Request) {
	sums, err := h.Svc.Summary()
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err = json.NewEncoder(w).Encode(sums); err != nil {
		h.Log.Err(err).Str("method", "summary").Msg("error encoding response")
	}
}

func (h *httpHandler) Statement(w http.ResponseWriter, r *http.Request) {
	num, err := h.acctNum(r)
	if err != nil {
		WriteHTTPError(w, err)
		return
	}
	buf := new(bytes.Buffer)
	if err = h.Svc.Statement(buf, num); err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error rendering statement")
		WriteHTTPError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	if _, err = w.Write(buf.Bytes()); err != nil {
		h.Log.Err(err).Str("method", "statement").Msg("error writing response")
	}
}

func WriteHTTPError(w http.ResponseWriter, err error) {
	var ne error
	defer func() {
		if ne != nil {
			log.Error().
				Err(ne).
				Msg("error response encoding failed")
		}
	}()

	w.Header().Set("Content-Type", "application/json")

	message := func(code int) {
		w.WriteHeader(code)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": err.Error()})
	}

	errbr := &ErrBadRequest{}
	erriat := &ErrInvalidAccountType{}
	erria := &ErrInvalidAmount{}
	errua := &ErrUnknownAccount{}
	errod := &ErrOverdraw{}
	errseq := &ErrSequence{}
	errlim := &ErrLimit{}
	switch {
	case errors.As(err, errbr):
		w.WriteHeader(http.StatusBadRequest)
		ne = json.NewEncoder(w).Encode(errbr)
	case errors.As(err, erriat), errors.As(err, erria), errors.Is(err, ErrNoAccountSelected):
		message(http.StatusBadRequest)
	case errors.As(err, errua):
		message(http.StatusNotFound)
	case errors.As(err, errod), errors.As(err, errseq), errors.As(err, errlim):
		message(http.StatusConflict)
	case errors.Is(err, ErrUnavailable):
		message(http.StatusServiceUnavailable)
	default:
		w.WriteHeader(http.StatusInternalServerError)
		ne = json.NewEncoder(w).Encode(map[string]string{"message": "server error"})
	}
}

func HTTPNotFound(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNotFound)
	w.Header().Set("Content-Type", "application/json")
	resp := map[string]string{
		"path": r.URL.Path,
	}
	json.NewEncoder(w).Encode(resp)
}
