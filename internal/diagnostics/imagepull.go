package diagnostics

import (
	"regexp"
	"strings"

	"github.com/codeready-toolchain/tarka/internal/domain"
)

// ecrImageRefPattern matches an ECR-hosted image reference:
// <account>.dkr.ecr.<region>.amazonaws.com/<repository>[:<tag>|@<digest>].
var ecrImageRefPattern = regexp.MustCompile(`^\d+\.dkr\.ecr\.([a-z0-9-]+)\.amazonaws\.com/([^:@]+)(?::([^@]+)|@(sha256:[0-9a-f]+))?$`)

var (
	reNotFound = regexp.MustCompile(`(?i)notfound|not found|manifest unknown|repository does not exist`)
	reAuth     = regexp.MustCompile(`(?i)unauthorized|access denied|forbidden|authentication required`)
	reTLS      = regexp.MustCompile(`(?i)certificate|x509|tls`)
	reNetwork  = regexp.MustCompile(`(?i)timeout|no route to host|dns|connection refused`)
)

// ImageRef is a parsed container image reference. ECRRegion/IsECR are only
// set when the host matches ECR's naming convention.
type ImageRef struct {
	Raw        string
	Repository string
	Tag        string
	Digest     string
	IsECR      bool
	ECRRegion  string
}

// ParseImageRef splits an image reference into repository/tag/digest,
// recognizing the ECR hostname convention for IsECR/ECRRegion.
func ParseImageRef(image string) ImageRef {
	ref := ImageRef{Raw: strings.TrimSpace(image)}
	if ref.Raw == "" {
		return ref
	}
	if m := ecrImageRefPattern.FindStringSubmatch(ref.Raw); m != nil {
		ref.IsECR = true
		ref.ECRRegion = m[1]
		ref.Repository = m[2]
		ref.Tag = m[3]
		ref.Digest = m[4]
		return ref
	}
	if i := strings.LastIndex(ref.Raw, "@"); i >= 0 {
		ref.Repository, ref.Digest = ref.Raw[:i], ref.Raw[i+1:]
		return ref
	}
	if i := strings.LastIndex(ref.Raw, ":"); i >= 0 && !strings.Contains(ref.Raw[i:], "/") {
		ref.Repository, ref.Tag = ref.Raw[:i], ref.Raw[i+1:]
		return ref
	}
	ref.Repository = ref.Raw
	return ref
}

// ClassifyPullError buckets a kubelet image-pull waiting message into a
// small closed set of likely causes, returning the matched excerpt as
// evidence. An empty bucket means none of the known patterns matched.
func ClassifyPullError(msg string) (bucket, evidence string) {
	switch {
	case reNotFound.MatchString(msg):
		return "not_found", reNotFound.FindString(msg)
	case reAuth.MatchString(msg):
		return "auth", reAuth.FindString(msg)
	case reTLS.MatchString(msg):
		return "tls", reTLS.FindString(msg)
	case reNetwork.MatchString(msg):
		return "network", reNetwork.FindString(msg)
	default:
		return "", ""
	}
}

// PopulateImagePullDiagnostics scans a pod's raw container statuses for an
// ImagePullBackOff/ErrImagePull waiting container and, when found, records
// the parsed image reference and classified error bucket onto
// Evidence.K8s.ImagePullDiagnostics. scorePodNotHealthy reads this back to
// turn a generic "image pull failed" one-liner into concrete, evidence-cited
// next steps (the ECR describe-images CLI line, missing imagePullSecrets,
// and so on) instead of generic advice.
func PopulateImagePullDiagnostics(inv *domain.Investigation, podInfo map[string]any) {
	for _, cs := range containerStatusMaps(podInfo["container_statuses"]) {
		state, _ := cs["state"].(map[string]any)
		waiting, _ := state["waiting"].(map[string]any)
		if waiting == nil {
			continue
		}
		reason, _ := waiting["reason"].(string)
		if reason != "ImagePullBackOff" && reason != "ErrImagePull" {
			continue
		}

		image, _ := cs["image"].(string)
		message, _ := waiting["message"].(string)
		bucket, evidence := ClassifyPullError(message)

		diag := map[string]any{
			"image":          image,
			"error_bucket":   bucket,
			"error_evidence": evidence,
		}
		if sa, ok := podInfo["service_account_name"].(string); ok {
			diag["service_account_name"] = sa
		}
		if secrets, ok := podInfo["image_pull_secrets"].([]any); ok {
			diag["service_account_image_pull_secrets"] = secrets
		}
		inv.Evidence.K8s.ImagePullDiagnostics = diag
		return
	}
}

func containerStatusMaps(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
