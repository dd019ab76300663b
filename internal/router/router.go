// Package router maps normalized requests onto catalog and wallet
// operations. It is stateless per request and transport-independent;
// the fiber layer only adapts bytes in and out.
package router

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"cardman/internal/models"
	"cardman/internal/services/catalog"
	"cardman/internal/services/wallet"
	"cardman/internal/store"
)

type Router struct {
	catalog catalog.Service
	wallet  wallet.Service
}

func New(catalogSvc catalog.Service, walletSvc wallet.Service) *Router {
	if catalogSvc == nil || walletSvc == nil {
		panic("catalog and wallet services are required")
	}
	return &Router{catalog: catalogSvc, wallet: walletSvc}
}

// Dispatch routes one request. OPTIONS short-circuits for CORS
// preflight before any route matching happens.
func (r *Router) Dispatch(ctx context.Context, req Request) Response {
	reqID := uuid.NewString()
	log.Printf("[%s] --> %s %s", reqID, req.Method, req.Path)

	if req.Method == http.MethodOptions {
		return Response{StatusCode: http.StatusOK, Headers: corsHeaders}
	}

	resp := r.route(ctx, req)
	log.Printf("[%s] <-- %d %s %s", reqID, resp.StatusCode, req.Method, req.Path)
	return resp
}

// route matches the fixed route table. A matched path with an
// unhandled method falls through to the same 404 as an unknown path.
// The deferred recover is the last-resort failure boundary: nothing
// here is retryable, so anything unexpected becomes a 500.
func (r *Router) route(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("panic handling %s %s: %v", req.Method, req.Path, rec)
			resp = errorResponse(http.StatusInternalServerError, fmt.Sprint(rec))
		}
	}()

	segments := splitPath(req.Path)

	switch {
	case matches(segments, "api", "cards"):
		switch req.Method {
		case http.MethodGet:
			return r.listCards(ctx)
		case http.MethodPost:
			return r.createCard(ctx, req.Body)
		}

	case matches(segments, "api", "cards", "*"):
		cardID := segments[2]
		switch req.Method {
		case http.MethodGet:
			return r.getCard(ctx, cardID)
		case http.MethodPut:
			return r.updateCard(ctx, cardID, req.Body)
		case http.MethodDelete:
			return r.deleteCard(ctx, cardID)
		}

	case matches(segments, "api", "users", "*", "cards"):
		userID := segments[2]
		switch req.Method {
		case http.MethodGet:
			return r.listUserCards(ctx, userID)
		case http.MethodPost:
			return r.addUserCard(ctx, userID, req.Body)
		}

	case matches(segments, "api", "users", "*", "cards", "*"):
		userID, cardID := segments[2], segments[4]
		switch req.Method {
		case http.MethodPut:
			return r.updateUserCard(ctx, userID, cardID, req.Body)
		case http.MethodDelete:
			return r.removeUserCard(ctx, userID, cardID)
		}

	case matches(segments, "api", "recommendations", "*"):
		if req.Method == http.MethodGet {
			return r.recommendCard(ctx, segments[2])
		}

	case matches(segments, "api", "categories", "*", "cards"):
		if req.Method == http.MethodGet {
			return r.searchByCategory(ctx, segments[2])
		}
	}

	return respond(http.StatusNotFound, models.Document{
		"error":  "Route not found",
		"path":   req.Path,
		"method": req.Method,
	})
}

func splitPath(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

// matches compares path segments against a pattern where "*" accepts
// any non-empty segment.
func matches(segments []string, pattern ...string) bool {
	if len(segments) != len(pattern) {
		return false
	}
	for i, p := range pattern {
		if p == "*" {
			if segments[i] == "" {
				return false
			}
			continue
		}
		if segments[i] != p {
			return false
		}
	}
	return true
}

// ---- catalog routes ----

func (r *Router) listCards(ctx context.Context) Response {
	cards, err := r.catalog.List(ctx)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{"cards": cards})
}

func (r *Router) createCard(ctx context.Context, body []byte) Response {
	doc, err := models.DecodeBody(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid JSON body")
	}
	card, err := r.catalog.Create(ctx, doc)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusCreated, models.Document{
		"message": "Card created successfully",
		"card":    card,
	})
}

func (r *Router) getCard(ctx context.Context, cardID string) Response {
	card, err := r.catalog.Get(ctx, cardID)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, card)
}

func (r *Router) updateCard(ctx context.Context, cardID string, body []byte) Response {
	patch, err := models.DecodeBody(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid JSON body")
	}
	card, err := r.catalog.Update(ctx, cardID, patch)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{
		"message": "Card updated successfully",
		"card":    card,
	})
}

func (r *Router) deleteCard(ctx context.Context, cardID string) Response {
	if err := r.catalog.Delete(ctx, cardID); err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{"message": "Card deleted successfully"})
}

func (r *Router) recommendCard(ctx context.Context, category string) Response {
	card, err := r.catalog.BestForCategory(ctx, category)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{"category": category, "card": card})
}

func (r *Router) searchByCategory(ctx context.Context, category string) Response {
	cards, err := r.catalog.SearchByCategory(ctx, category)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{"category": category, "cards": cards})
}

// ---- wallet routes ----

func (r *Router) listUserCards(ctx context.Context, userID string) Response {
	enriched, err := r.wallet.EnrichedForUser(ctx, userID)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, enriched)
}

func (r *Router) addUserCard(ctx context.Context, userID string, body []byte) Response {
	doc, err := models.DecodeBody(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid JSON body")
	}
	assoc, err := r.wallet.Add(ctx, userID, doc.GetString("card_id"), doc.GetString("notes"))
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusCreated, models.Document{
		"message":   "Card added to wallet successfully",
		"user_card": assoc,
	})
}

func (r *Router) updateUserCard(ctx context.Context, userID, cardID string, body []byte) Response {
	patch, err := models.DecodeBody(body)
	if err != nil {
		return errorResponse(http.StatusBadRequest, "invalid JSON body")
	}
	assoc, err := r.wallet.Update(ctx, userID, cardID, patch)
	if err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{
		"message":   "Wallet entry updated successfully",
		"user_card": assoc,
	})
}

func (r *Router) removeUserCard(ctx context.Context, userID, cardID string) Response {
	if err := r.wallet.Remove(ctx, userID, cardID); err != nil {
		return r.fail(err)
	}
	return respond(http.StatusOK, models.Document{"message": "Card removed from wallet successfully"})
}

// ---- error mapping ----

// fail maps a service error onto the response taxonomy: validation
// and duplicate-identity failures are 400, absent entities 404, and
// everything else is demoted to a 500 at this boundary.
func (r *Router) fail(err error) Response {
	return errorResponse(statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrCardNotFound),
		errors.Is(err, catalog.ErrNoCardForCategory),
		errors.Is(err, wallet.ErrNotInWallet),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrCardExists),
		errors.Is(err, catalog.ErrMissingField),
		errors.Is(err, catalog.ErrUnknownField),
		errors.Is(err, catalog.ErrImmutableField),
		errors.Is(err, catalog.ErrEmptyUpdate),
		errors.Is(err, wallet.ErrAlreadyInWallet),
		errors.Is(err, wallet.ErrMissingCardID),
		errors.Is(err, wallet.ErrUnknownField),
		errors.Is(err, wallet.ErrImmutableField),
		errors.Is(err, wallet.ErrEmptyUpdate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
