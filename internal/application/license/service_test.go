package license

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ops-portal-api/pkg/errors"
)

type fakeFetcher struct {
	text string
	err  error
}

func (f *fakeFetcher) Fetch(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

func TestSummarize_RequiresTextOrName(t *testing.T) {
	svc := NewService(nil, &fakeFetcher{})

	_, err := svc.Summarize(context.Background(), SummarizeInput{})
	require.Error(t, err)

	appErr := errors.AsAppError(err)
	assert.Equal(t, errors.CodeInvalidParam, appErr.Code)
	assert.Equal(t, "ライセンステキストが空です。ソフトウェア名を指定するか、本文を貼り付けてください。", appErr.Message)
}

func TestSummarize_PropagatesFetcherError(t *testing.T) {
	notFound := errors.New(errors.CodeLicenseNotFound, "ソフトウェア名 'nosuch' からライセンス情報を取得できませんでした。")
	svc := NewService(nil, &fakeFetcher{err: notFound})

	_, err := svc.Summarize(context.Background(), SummarizeInput{SoftwareName: "nosuch"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeLicenseNotFound, errors.AsAppError(err).Code)
}

func TestJudge_InvalidUsageType(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Judge(context.Background(), JudgeInput{
		UsageType: "resale",
		Summary:   &Summary{CommercialUse: "allowed"},
	})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.AsAppError(err).Code)
}

func TestJudge_RequiresSummary(t *testing.T) {
	svc := NewService(nil, nil)

	_, err := svc.Judge(context.Background(), JudgeInput{UsageType: "internal"})
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidParam, errors.AsAppError(err).Code)
}
