// Package patterns holds the diagnostic engine's log-pattern library: one
// catalogue per failure domain (S3, crashloop causes, RDS, ECR, generic
// networking). Each pattern pairs a set of regexes with a fixed confidence
// score and templated remediation/diagnostic steps, so a log match always
// produces the same explainable hypothesis.
package patterns

import "github.com/codeready-toolchain/tarka/internal/diagnostics"

var bucketExtractor = `(?:for\s+(?:bucket\s+)?|bucket[:\s]\s*(?!region\b))([a-z0-9][a-z0-9.-]*[a-z0-9])`

// S3 is the S3-specific error pattern catalogue.
var S3 = []diagnostics.LogPattern{
	diagnostics.NewLogPattern(
		"s3_access_denied", "S3 access denied (IAM/bucket policy)",
		[]string{
			`(?:403|Forbidden).*(?:s3|bucket)`,
			`Access Denied.*(?:HeadBucket|GetObject|PutObject|ListBucket)`,
			`Failed to get bucket region.*403`,
		},
		90,
		"Job pod cannot access S3 bucket '{bucket}' (403 Forbidden from {operation} operation)",
		[]string{
			"Verify bucket exists and check current permissions:",
			"aws s3api head-bucket --bucket {bucket}",
			"Check current IAM role annotation:",
			"kubectl get sa {sa} -n {namespace} -o yaml | grep eks.amazonaws.com/role-arn",
		},
		[]string{
			"Attach an IAM policy granting s3:GetObject, s3:ListBucket, s3:GetBucketLocation on arn:aws:s3:::{bucket} and arn:aws:s3:::{bucket}/* to the pod's IAM role.",
		},
		map[string]string{"bucket": bucketExtractor, "operation": `(HeadBucket|GetObject|PutObject|ListBucket|GetBucketRegion)`},
	),
	diagnostics.NewLogPattern(
		"s3_bucket_not_found", "S3 bucket does not exist",
		[]string{`(?:404|NoSuchBucket).*(?:s3|bucket)`, `The specified bucket does not exist`},
		95,
		"S3 bucket '{bucket}' does not exist or is in a different region",
		[]string{
			"Check if bucket exists:",
			"aws s3api head-bucket --bucket {bucket}",
			"Verify bucket name in application config:",
			"kubectl get configmap -n {namespace} -o yaml | grep -i {bucket}",
		},
		nil,
		map[string]string{"bucket": bucketExtractor},
	),
	diagnostics.NewLogPattern(
		"s3_credentials_error", "AWS credentials not configured",
		[]string{`Unable to locate credentials`, `No credentials found`, `Unable to locate AWS credentials`},
		85,
		"Job pod has no AWS credentials configured (IRSA not set up)",
		[]string{
			"Check service account for IRSA annotation:",
			"kubectl get sa {sa} -n {namespace} -o yaml",
			"Verify service account token is mounted in pod:",
			"kubectl describe pod {pod} -n {namespace} | grep -A5 AWS_WEB_IDENTITY_TOKEN_FILE",
		},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"s3_region_mismatch", "S3 bucket region mismatch",
		[]string{`bucket.*is in.*(?:region|Region)`, `PermanentRedirect.*bucket`},
		85,
		"S3 bucket '{bucket}' is in a different region than the client is configured for",
		[]string{
			"Get bucket region:",
			"aws s3api get-bucket-location --bucket {bucket}",
		},
		[]string{"Add AWS_DEFAULT_REGION or AWS_REGION environment variable to the pod spec matching the bucket's region."},
		map[string]string{"bucket": bucketExtractor},
	),
}

// Crashloop is the crashloop-specific error pattern catalogue: dependency,
// config, port, OOM, permission, and database connection failure modes.
var Crashloop = []diagnostics.LogPattern{
	diagnostics.NewLogPattern(
		"crashloop_dependency_connection", "Dependency connection failure (connection refused / DNS)",
		[]string{`Connection refused`, `ECONNREFUSED`, `dial tcp.*connection refused`, `no such host`, `Name or service not known`, `getaddrinfo ENOTFOUND`},
		85,
		"Application cannot connect to dependency '{host}' (connection refused or DNS failure)",
		[]string{
			"Check if the dependency service is running:",
			"kubectl -n {namespace} get svc | grep -i {host}",
			"Test DNS resolution from within the cluster:",
			"kubectl -n {namespace} run -it --rm dns-test --image=busybox -- nslookup {host}",
		},
		nil,
		map[string]string{"host": `(?:dial tcp |connect to |connecting to |resolve host |ENOTFOUND )([^\s:]+)`},
	),
	diagnostics.NewLogPattern(
		"crashloop_config_missing", "Missing configuration file or environment variable",
		[]string{`FileNotFoundError`, `No such file or directory.*\.(?:yaml|yml|json|env|conf|properties|toml|ini|cfg)`, `missing required.*config`, `required environment variable.*not set`},
		80,
		"Application fails to start due to missing configuration file or environment variable",
		[]string{
			"Check ConfigMap and Secret mounts on the pod:",
			"kubectl -n {namespace} describe pod {pod} | grep -A5 -i volumes",
			"List ConfigMaps and Secrets in the namespace:",
			"kubectl -n {namespace} get cm,secret",
		},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"crashloop_port_bind_failure", "Port bind failure (address already in use)",
		[]string{`bind.*address already in use`, `EADDRINUSE`, `port.*already.*in use`},
		90,
		"Application cannot bind to port (address already in use)",
		[]string{
			"Check containerPort spec in the pod definition:",
			"kubectl -n {namespace} get pod {pod} -o jsonpath='{.spec.containers[*].ports}'",
		},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"crashloop_oom_application", "Application out of memory (heap exhaustion)",
		[]string{`OutOfMemoryError`, `JavaScript heap out of memory`, `Cannot allocate memory`, `ENOMEM`, `runtime: out of memory`, `std::bad_alloc`},
		85,
		"Application running out of memory (heap exhaustion before OOMKill)",
		[]string{
			"Check memory limits and requests for the container:",
			"kubectl -n {namespace} get pod {pod} -o jsonpath='{.spec.containers[*].resources}'",
		},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"crashloop_permission_denied", "Permission denied (filesystem or security)",
		[]string{`Permission denied`, `EACCES`, `Operation not permitted`, `read-only file system`},
		80,
		"Application lacks filesystem or security permissions",
		[]string{
			"Check securityContext and volume mounts:",
			"kubectl -n {namespace} get pod {pod} -o jsonpath='{.spec.containers[*].securityContext}'",
		},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"crashloop_database_connection", "Database connection failure",
		[]string{`could not connect to server.*PostgreSQL`, `Connection.*refused.*(?:postgres|mysql|mongo)`, `MongoNetworkError`, `ECONNREFUSED.*(?:5432|3306|27017)`},
		85,
		"Application cannot connect to its database",
		[]string{
			"Check the database service endpoint and credentials Secret:",
			"kubectl -n {namespace} get secret,svc | grep -i db",
		},
		nil,
		nil,
	),
}

// AWS covers RDS and ECR failure modes surfaced through job/pod logs,
// supplementing the S3-only pattern library the original distillation
// shipped with.
var AWS = []diagnostics.LogPattern{
	diagnostics.NewLogPattern(
		"rds_connection_refused", "RDS instance unreachable",
		[]string{`could not connect to server: Connection timed out.*rds`, `Unknown MySQL server host`, `timeout expired.*database`},
		80,
		"Cannot reach RDS endpoint '{host}' — security group or network path is likely blocking the connection",
		[]string{
			"Check security group ingress from the pod's node/subnet to the RDS instance's port:",
			"aws rds describe-db-instances --db-instance-identifier {host}",
		},
		nil,
		map[string]string{"host": `(?:host[:\s]+|server )([a-z0-9.-]+\.rds\.amazonaws\.com)`},
	),
	diagnostics.NewLogPattern(
		"rds_auth_failure", "RDS authentication failure",
		[]string{`password authentication failed`, `Access denied for user`},
		85,
		"Database credentials for RDS are rejected",
		[]string{"Verify the credentials Secret matches the RDS master/IAM-auth user currently configured."},
		nil,
		nil,
	),
	diagnostics.NewLogPattern(
		"ecr_pull_unauthorized", "ECR image pull unauthorized",
		[]string{`no basic auth credentials`, `ImagePullBackOff.*ecr`, `401 Unauthorized.*ecr`},
		85,
		"Container runtime cannot authenticate to ECR for image '{image}'",
		[]string{
			"Verify the node IAM role has ecr:GetAuthorizationToken/BatchGetImage:",
			"aws ecr get-login-password --region {region} | docker login --username AWS --password-stdin {registry}",
		},
		nil,
		map[string]string{"image": `image[:\s]+([\w./:-]+)`},
	),
}

// Networking covers generic cluster-networking failure modes that aren't
// specific to one cloud resource.
var Networking = []diagnostics.LogPattern{
	diagnostics.NewLogPattern(
		"network_policy_block", "Traffic likely blocked by a NetworkPolicy",
		[]string{`i/o timeout.*dial`, `context deadline exceeded.*dial`},
		55,
		"Connection attempts are timing out rather than being refused, consistent with a NetworkPolicy silently dropping traffic",
		[]string{
			"List NetworkPolicies applied to the namespace and check for an egress deny-all without an explicit allow:",
			"kubectl -n {namespace} get networkpolicy -o yaml",
		},
		nil,
		nil,
	),
}

// All is every pattern from every catalogue, the default set job-failure
// and crashloop diagnosis match logs against.
var All = concat(S3, Crashloop, AWS, Networking)

func concat(lists ...[]diagnostics.LogPattern) []diagnostics.LogPattern {
	var out []diagnostics.LogPattern
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
