package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterLister is the subset of the SSM client used to load parameters.
type ParameterLister interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// LoadSSM fetches every parameter under path and returns them keyed by the last
// path segment, so /portfolio/prod/ADMIN_PASSWORD becomes ADMIN_PASSWORD.
func LoadSSM(ctx context.Context, client ParameterLister, path string) (map[string]string, error) {
	values := make(map[string]string)
	paginator := ssm.NewGetParametersByPathPaginator(client, &ssm.GetParametersByPathInput{
		Path:           aws.String(path),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("load ssm parameters under %s: %w", path, err)
		}
		for _, p := range page.Parameters {
			name := aws.ToString(p.Name)
			if i := strings.LastIndex(name, "/"); i >= 0 {
				name = name[i+1:]
			}
			if name == "" {
				continue
			}
			values[name] = aws.ToString(p.Value)
		}
	}
	return values, nil
}

// OverlaySSM merges parameters from SSM_PARAMETER_PATH into config when that key is set.
func OverlaySSM(ctx context.Context, config map[string]string) (map[string]string, error) {
	path := GetString(config, "SSM_PARAMETER_PATH", "")
	if path == "" {
		return config, nil
	}

	opts := []func(*awsconfig.LoadOptions) error{}
	if region := GetString(config, "AWS_REGION", ""); region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return config, fmt.Errorf("load aws config: %w", err)
	}

	values, err := LoadSSM(ctx, ssm.NewFromConfig(awsCfg), path)
	if err != nil {
		return config, err
	}
	return Merge(config, values), nil
}
