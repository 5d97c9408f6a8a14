package usecase

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otpgate/otpgate/internal/pkg/goerror"
)

func TestCodePreview(t *testing.T) {
	f := newFixture(t)

	secret := f.deriver.Derive("sensor-001")

	out, err := f.uc.CodePreview(context.Background(), CodePreviewInput{
		DerivedSecret: base64.StdEncoding.EncodeToString(secret),
	})
	require.NoError(t, err)

	assert.Equal(t, f.validCode(t, "sensor-001"), out.Code)
	assert.Equal(t, f.engine.StepAt(testNow), out.Step)
	assert.Positive(t, out.ExpiresIn)
	assert.LessOrEqual(t, out.ExpiresIn, int64(30))
}

func TestCodePreview_BadInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.CodePreview(context.Background(), CodePreviewInput{})
	requireErrorCode(t, err, goerror.CodeInvalidInput)

	_, err = f.uc.CodePreview(context.Background(), CodePreviewInput{DerivedSecret: "%%%not-base64%%%"})
	requireErrorCode(t, err, goerror.CodeInvalidInput)
}
