package users

import (
	"log/slog"
	"net/http"
	"strconv"

	resp "account_service/internal/lib/api/response"
	sl "account_service/internal/lib/logger"
	"account_service/internal/models"
	usersvc "account_service/internal/users"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

// AccountResponse is the client-facing account shape. The password hash and
// reset fields never leave the service.
type AccountResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func fromModel(a models.Account) AccountResponse {
	return AccountResponse{
		ID:    a.ID,
		Name:  a.Name,
		Email: a.Email,
		Role:  string(a.Role),
	}
}

type ListResponse struct {
	resp.Response
	Accounts []AccountResponse `json:"accounts"`
}

type GetResponse struct {
	resp.Response
	Account AccountResponse `json:"account"`
}

type CreateRequest struct {
	Name            string `json:"name" validate:"required,min=5,max=15"`
	Email           string `json:"email" validate:"required,email"`
	Role            string `json:"role" validate:"omitempty,oneof=admin user"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type UpdateRequest struct {
	Name  string `json:"name" validate:"required,min=5,max=15"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required,oneof=admin user"`
}

func List(log *slog.Logger, service *usersvc.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.List"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		accounts, err := service.List(r.Context())
		if err != nil {
			log.Error("failed to list accounts", sl.Err(err))

			status, body := resp.Translate(err)
			render.Status(r, status)
			render.JSON(w, r, body)

			return
		}

		out := make([]AccountResponse, 0, len(accounts))
		for _, a := range accounts {
			out = append(out, fromModel(a))
		}

		render.JSON(w, r, ListResponse{
			Response: resp.OK(),
			Accounts: out,
		})
	}
}

func Get(log *slog.Logger, service *usersvc.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.Get"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := accountID(w, r)
		if !ok {
			return
		}

		account, err := service.Get(r.Context(), id)
		if err != nil {
			log.Info("failed to get account", sl.Err(err))

			status, body := resp.Translate(err)
			render.Status(r, status)
			render.JSON(w, r, body)

			return
		}

		render.JSON(w, r, GetResponse{
			Response: resp.OK(),
			Account:  fromModel(account),
		})
	}
}

func Create(log *slog.Logger, validate *validator.Validate, service *usersvc.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.Create"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req CreateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		account, err := service.Create(r.Context(), req.Name, req.Email, req.Password, models.Role(req.Role))
		if err != nil {
			log.Error("failed to create account", sl.Err(err))

			status, body := resp.Translate(err)
			render.Status(r, status)
			render.JSON(w, r, body)

			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, GetResponse{
			Response: resp.OK(),
			Account:  fromModel(account),
		})
	}
}

func Update(log *slog.Logger, validate *validator.Validate, service *usersvc.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.Update"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := accountID(w, r)
		if !ok {
			return
		}

		var req UpdateRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("Failed to decode request body", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.Error("Failed to decode request"))

			return
		}

		if err := validate.Struct(req); err != nil {
			validateErr := err.(validator.ValidationErrors)

			log.Error("Invalid request", sl.Err(err))

			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, resp.ValidationError(validateErr))

			return
		}

		account, err := service.Update(r.Context(), id, req.Name, req.Email, models.Role(req.Role))
		if err != nil {
			log.Info("failed to update account", sl.Err(err))

			status, body := resp.Translate(err)
			render.Status(r, status)
			render.JSON(w, r, body)

			return
		}

		render.JSON(w, r, GetResponse{
			Response: resp.OK(),
			Account:  fromModel(account),
		})
	}
}

func Delete(log *slog.Logger, service *usersvc.Users) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.users.Delete"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, ok := accountID(w, r)
		if !ok {
			return
		}

		if err := service.Delete(r.Context(), id); err != nil {
			log.Info("failed to delete account", sl.Err(err))

			status, body := resp.Translate(err)
			render.Status(r, status)
			render.JSON(w, r, body)

			return
		}

		render.NoContent(w, r)
	}
}

func accountID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, resp.Error("invalid account id"))

		return 0, false
	}

	return id, true
}
