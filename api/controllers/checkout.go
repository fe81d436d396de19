package controllers

import (
	"net/http"

	"github.com/atelierhq/atelier-backend/api/responses"
	"github.com/atelierhq/atelier-backend/api/validators"
	"github.com/atelierhq/atelier-backend/internal/checkout"
	pkgerrors "github.com/atelierhq/atelier-backend/pkg/errors"
	"github.com/atelierhq/atelier-backend/pkg/logger"
)

type checkoutSubmitRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Address   string `json:"address" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	Zip       string `json:"zip" validate:"required"`
}

type checkoutConfirmRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type checkoutSubmitResponse struct {
	OrderNumber string `json:"order_number"`
	SessionID   string `json:"session_id"`
	RedirectURL string `json:"redirect_url"`
	Phase       string `json:"phase"`
}

type checkoutConfirmResponse struct {
	Order  orderResponse           `json:"order"`
	Stages []trackingStageResponse `json:"stages"`
	Phase  string                  `json:"phase"`
}

// CheckoutBegin moves the user into the collecting phase.
func CheckoutBegin(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		phase := svc.Begin(r.Context(), userID)
		responses.WriteSuccess(w, map[string]string{"phase": string(phase)})
	}
}

// CheckoutPhase reports where the user's checkout currently stands.
func CheckoutPhase(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"phase": string(svc.Phase(userID))})
	}
}

// CheckoutSubmit freezes the cart into a pending order and opens the
// hosted payment session.
func CheckoutSubmit(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutSubmitRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Submit(r.Context(), userID, checkout.SubmitInput{
			Email:     body.Email,
			FirstName: body.FirstName,
			LastName:  body.LastName,
			Address:   body.Address,
			City:      body.City,
			State:     body.State,
			Zip:       body.Zip,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutSubmitResponse{
			OrderNumber: result.OrderNumber,
			SessionID:   result.SessionID,
			RedirectURL: result.RedirectURL,
			Phase:       string(result.Phase),
		})
	}
}

// CheckoutConfirm reconciles the payment session and returns the receipt.
func CheckoutConfirm(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := requestUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutConfirmRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Confirm(r.Context(), userID, body.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkoutConfirmResponse{
			Order:  toOrderResponse(result.Order),
			Stages: toStageResponses(result.Stages),
			Phase:  string(result.Phase),
		})
	}
}
