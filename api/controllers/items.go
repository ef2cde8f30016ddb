package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelasquez/gearshare-backend/api/middleware"
	"github.com/avelasquez/gearshare-backend/api/responses"
	"github.com/avelasquez/gearshare-backend/internal/items"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
)

// ItemDetail returns one item; owners also see the nearest booking refs.
func ItemDetail(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		view, err := svc.GetItemView(ctx, middleware.UserIDFromContext(ctx), itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// ItemListAsOwner returns the caller's items with nearest booking refs.
func ItemListAsOwner(svc items.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "item service unavailable"))
			return
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		views, err := svc.ListOwnerItems(ctx, middleware.UserIDFromContext(ctx), page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}
