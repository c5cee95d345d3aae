package diagnostics

import (
	"testing"

	"github.com/codeready-toolchain/tarka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImageRefECRWithTag(t *testing.T) {
	ref := ParseImageRef("123456789012.dkr.ecr.us-east-1.amazonaws.com/example-org/example-app:badtag")
	assert.True(t, ref.IsECR)
	assert.Equal(t, "us-east-1", ref.ECRRegion)
	assert.Equal(t, "example-org/example-app", ref.Repository)
	assert.Equal(t, "badtag", ref.Tag)
	assert.Empty(t, ref.Digest)
}

func TestParseImageRefECRWithDigest(t *testing.T) {
	ref := ParseImageRef("123456789012.dkr.ecr.eu-west-1.amazonaws.com/app@sha256:deadbeef")
	assert.True(t, ref.IsECR)
	assert.Equal(t, "eu-west-1", ref.ECRRegion)
	assert.Equal(t, "app", ref.Repository)
	assert.Equal(t, "sha256:deadbeef", ref.Digest)
}

func TestParseImageRefNonECR(t *testing.T) {
	ref := ParseImageRef("docker.io/library/nginx:1.25")
	assert.False(t, ref.IsECR)
	assert.Equal(t, "docker.io/library/nginx", ref.Repository)
	assert.Equal(t, "1.25", ref.Tag)
}

func TestClassifyPullErrorBuckets(t *testing.T) {
	bucket, _ := ClassifyPullError(`rpc error: code = NotFound desc = failed to resolve reference`)
	assert.Equal(t, "not_found", bucket)

	bucket, _ = ClassifyPullError("unauthorized: authentication required")
	assert.Equal(t, "auth", bucket)

	bucket, _ = ClassifyPullError("x509: certificate signed by unknown authority")
	assert.Equal(t, "tls", bucket)

	bucket, _ = ClassifyPullError("dial tcp: i/o timeout")
	assert.Equal(t, "network", bucket)

	bucket, _ = ClassifyPullError("some unrecognized kubelet error")
	assert.Empty(t, bucket)
}

func TestPopulateImagePullDiagnosticsFindsWaitingContainer(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	podInfo := map[string]any{
		"container_statuses": []any{
			map[string]any{
				"name":  "app",
				"image": "123456789012.dkr.ecr.us-east-1.amazonaws.com/example-org/example-app:badtag",
				"state": map[string]any{
					"waiting": map[string]any{
						"reason":  "ImagePullBackOff",
						"message": `Back-off pulling image: rpc error: code = NotFound desc = ...`,
					},
				},
			},
		},
	}

	PopulateImagePullDiagnostics(inv, podInfo)

	require.NotNil(t, inv.Evidence.K8s.ImagePullDiagnostics)
	diag := inv.Evidence.K8s.ImagePullDiagnostics
	assert.Equal(t, "123456789012.dkr.ecr.us-east-1.amazonaws.com/example-org/example-app:badtag", diag["image"])
	assert.Equal(t, "not_found", diag["error_bucket"])
}

func TestPopulateImagePullDiagnosticsNoopWithoutWaitingContainer(t *testing.T) {
	inv := domain.NewInvestigation(&domain.AlertInstance{}, domain.TimeWindow{})
	PopulateImagePullDiagnostics(inv, map[string]any{"phase": "Running"})
	assert.Nil(t, inv.Evidence.K8s.ImagePullDiagnostics)
}
