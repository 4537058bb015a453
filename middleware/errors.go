package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/MrEthical07/phoneauth"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// WriteError writes {"detail": ...} with the status phoneauth assigns to err.
func WriteError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(phoneauth.StatusCode(err))
	_ = json.NewEncoder(w).Encode(errorBody{Detail: phoneauth.PublicMessage(err)})
}
