package service

import (
	"context"
	"encoding/base64"
	"strings"

	"gocloud.dev/secrets"

	apperrors "github.com/mailmind/mailmind/internal/errors"

	// Register keeper drivers
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

const (
	encPrefix   = "ENC:"
	plainPrefix = "PLAINTEXT:"
)

// CredentialKeeper encrypts IMAP passwords at rest through a gocloud.dev
// secrets keeper. Without a configured key URI it degrades to prefixed
// plaintext, which keeps local development working and makes unencrypted
// values recognizable in the database.
type CredentialKeeper struct {
	keeper *secrets.Keeper
}

// NewCredentialKeeper opens the keeper for the given key URI (hashivault://,
// base64key://, ...). An empty URI yields a plaintext keeper.
func NewCredentialKeeper(ctx context.Context, keyURI string) (*CredentialKeeper, error) {
	if keyURI == "" {
		return &CredentialKeeper{}, nil
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open credential keeper")
	}
	return &CredentialKeeper{keeper: keeper}, nil
}

// Close releases the underlying keeper.
func (k *CredentialKeeper) Close() error {
	if k.keeper == nil {
		return nil
	}
	return k.keeper.Close()
}

// Encrypt seals a plaintext secret into its stored form.
func (k *CredentialKeeper) Encrypt(ctx context.Context, plaintext string) (string, error) {
	if k.keeper == nil {
		return plainPrefix + plaintext, nil
	}

	ciphertext, err := k.keeper.Encrypt(ctx, []byte(plaintext))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encrypt credential")
	}
	return encPrefix + base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a stored secret. ENC: values require a configured keeper;
// PLAINTEXT: values pass through.
func (k *CredentialKeeper) Decrypt(ctx context.Context, stored string) (string, error) {
	switch {
	case strings.HasPrefix(stored, plainPrefix):
		return strings.TrimPrefix(stored, plainPrefix), nil
	case strings.HasPrefix(stored, encPrefix):
		if k.keeper == nil {
			return "", apperrors.New("credential is encrypted but no keeper is configured")
		}
		ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(stored, encPrefix))
		if err != nil {
			return "", apperrors.Wrap(err, "failed to decode credential ciphertext")
		}
		plaintext, err := k.keeper.Decrypt(ctx, ciphertext)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to decrypt credential")
		}
		return string(plaintext), nil
	default:
		return "", apperrors.Wrap(apperrors.ErrInvalidInput, "unrecognized credential format")
	}
}
