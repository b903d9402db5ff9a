package cli

import (
	"context"
	"os"

	"github.com/dmitrijs2005/afterlog/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Signup creates an account. The email may be given inline; the password is
// always read from the terminal without echo and wiped afterwards.
func (a *App) Signup(ctx context.Context, email string) error {
	return a.authenticate(ctx, email, a.ctrl.SignUp)
}

// Login signs in with an existing account.
func (a *App) Login(ctx context.Context, email string) error {
	return a.authenticate(ctx, email, a.ctrl.SignIn)
}

func (a *App) authenticate(ctx context.Context, email string, do func(ctx context.Context, email, password string)) error {
	if email == "" {
		var err error
		if email, err = getSimpleText(a.reader, "Enter email", os.Stdout); err != nil {
			return err
		}
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	do(ctx, email, string(password))
	return nil
}
