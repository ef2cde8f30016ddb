package controllers

import (
	"math"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/avelasquez/gearshare-backend/api/middleware"
	"github.com/avelasquez/gearshare-backend/api/responses"
	"github.com/avelasquez/gearshare-backend/api/validators"
	"github.com/avelasquez/gearshare-backend/internal/bookings"
	pkgerrors "github.com/avelasquez/gearshare-backend/pkg/errors"
	"github.com/avelasquez/gearshare-backend/pkg/logger"
	"github.com/avelasquez/gearshare-backend/pkg/pagination"
)

// BookingCreate records a new WAITING booking for the calling user.
func BookingCreate(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		var input bookings.CreateBookingInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dto, err := svc.Create(ctx, middleware.UserIDFromContext(ctx), input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// BookingDecide lets the item owner approve or reject a WAITING booking.
func BookingDecide(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		var approved bool
		switch strings.ToLower(strings.TrimSpace(r.URL.Query().Get("approved"))) {
		case "true":
			approved = true
		case "false":
			approved = false
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "approved query parameter must be true or false"))
			return
		}

		dto, err := svc.Decide(ctx, middleware.UserIDFromContext(ctx), bookingID, approved)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// BookingDetail returns one booking to its booker or the item owner.
func BookingDetail(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		bookingID, err := uuid.Parse(chi.URLParam(r, "bookingId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid booking id"))
			return
		}

		dto, err := svc.GetByID(ctx, middleware.UserIDFromContext(ctx), bookingID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// BookingListAsBooker returns the caller's own bookings filtered by bucket.
func BookingListAsBooker(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return listBookings(logg, nil)
	}
	return listBookings(logg, func(r *http.Request, state string, page pagination.Params) ([]bookings.BookingDTO, error) {
		return svc.ListForBooker(r.Context(), middleware.UserIDFromContext(r.Context()), state, page)
	})
}

// BookingListAsOwner returns bookings across the caller's items filtered by
// bucket.
func BookingListAsOwner(svc bookings.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return listBookings(logg, nil)
	}
	return listBookings(logg, func(r *http.Request, state string, page pagination.Params) ([]bookings.BookingDTO, error) {
		return svc.ListForOwner(r.Context(), middleware.UserIDFromContext(r.Context()), state, page)
	})
}

func listBookings(logg *logger.Logger, fetch func(*http.Request, string, pagination.Params) ([]bookings.BookingDTO, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if fetch == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "booking service unavailable"))
			return
		}

		state := strings.TrimSpace(r.URL.Query().Get("state"))
		if state == "" {
			state = "ALL"
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		list, err := fetch(r, state, page)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func parsePage(r *http.Request) (pagination.Params, error) {
	from, err := validators.ParseQueryInt(r, "from", 0, 0, math.MaxInt32)
	if err != nil {
		return pagination.Params{}, err
	}
	size, err := validators.ParseQueryInt(r, "size", pagination.DefaultSize, 1, pagination.MaxSize)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{From: from, Size: size}, nil
}
