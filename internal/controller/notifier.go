package controller

import (
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"cedra_admin/internal/apiclient"
	"cedra_admin/internal/forms"
)

var (
	ErrSubmitting = errors.New("envoi déjà en cours")
	ErrSubmitted  = errors.New("formulaire déjà envoyé")
)

// ValidationError porte les erreurs de champ détectées avant l'envoi.
type ValidationError struct {
	Fields forms.FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return "formulaire invalide: " + strings.Join(keys, ", ")
}

// Notifier affiche le retour utilisateur : toasts et erreurs en ligne.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	FieldErrors(fe forms.FieldErrors)
}

// LogNotifier écrit les notifications dans le log standard.
type LogNotifier struct{}

func (LogNotifier) Success(msg string) { log.Println("✅", msg) }
func (LogNotifier) Error(msg string)   { log.Println("❌", msg) }

func (LogNotifier) FieldErrors(fe forms.FieldErrors) {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		log.Printf("⚠️ %s: %s", k, fe[k])
	}
}

// toastMessage choisit le message à afficher pour une erreur d'envoi.
func toastMessage(prefix string, err error) string {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fmt.Sprintf("%s : %v", prefix, err)
}

// notifyServerFields remonte en ligne les erreurs de champ renvoyées par l'API.
func notifyServerFields(n Notifier, err error) {
	var apiErr *apiclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Fields) > 0 {
		n.FieldErrors(forms.FieldErrors(apiErr.Fields))
	}
}
