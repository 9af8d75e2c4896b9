package web

import (
	"net/http"

	"github.com/unrolled/render"
	"github.com/youcodecowboy/fantasy-hockey-analysis/controller"
)

type oauthStartResponse struct {
	URL string `json:"url"`
}

type oauthLinkedResponse struct {
	Linked bool   `json:"linked"`
	UserID string `json:"userId"`
}

// oauthStartHandler hands the consent URL back to the client instead of
// redirecting, since the session travels in a header the browser will not
// resend on a redirect.
func oauthStartHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		url, err := ctrl.OAuthStart(currentUser(r))
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, oauthStartResponse{URL: url})
	}
}

func oauthCallbackHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		if e := params.Get("error"); e != "" {
			render.JSON(w, http.StatusBadRequest, errorBody("yahoo declined the link: "+e))
			return
		}

		cred, err := ctrl.OAuthExchange(r.Context(), params.Get("state"), params.Get("code"))
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, oauthLinkedResponse{Linked: true, UserID: cred.UserID})
	}
}

func oauthStatusHandler(ctrl controller.C, render *render.Render) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := ctrl.OAuthStatus(r.Context(), currentUser(r))
		if err != nil {
			writeError(w, r, render, err)
			return
		}
		render.JSON(w, http.StatusOK, st)
	}
}
