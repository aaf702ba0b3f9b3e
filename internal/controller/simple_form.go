package controller

import (
	"context"
	"sync"

	"cedra_admin/internal/forms"
)

// SimpleForm couvre les formulaires sans galerie : validation, envoi unique,
// toast. Le même formulaire peut être renvoyé après un échec ou un succès.
type SimpleForm[P forms.Payload] struct {
	mu         sync.Mutex
	notify     Notifier
	success    string
	submit     func(context.Context, P) (string, error)
	extra      func(P, forms.FieldErrors)
	submitting bool
}

func NewSimpleForm[P forms.Payload](notify Notifier, success string, submit func(context.Context, P) (string, error)) *SimpleForm[P] {
	return &SimpleForm[P]{notify: notify, success: success, submit: submit}
}

func (f *SimpleForm[P]) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}

func (f *SimpleForm[P]) Submit(ctx context.Context, p P) (string, error) {
	fe := forms.Validate(p)
	if f.extra != nil {
		f.extra(p, fe)
	}
	if !fe.Empty() {
		f.notify.FieldErrors(fe)
		return "", &ValidationError{Fields: fe}
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return "", ErrSubmitting
	}
	f.submitting = true
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.submitting = false
		f.mu.Unlock()
	}()

	id, err := f.submit(ctx, p)
	if err != nil {
		f.notify.Error(toastMessage("Échec de l'enregistrement", err))
		notifyServerFields(f.notify, err)
		return "", err
	}
	f.notify.Success(f.success)
	return id, nil
}
