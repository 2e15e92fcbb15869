package main

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/team-welcome/dandiya-registration/api"
)

const (
	merchantVPAParamName   = "/dandiya-registration/merchant-vpa"
	operatorTokenParamName = "/dandiya-registration/operator-token"
)

// getMerchantSecrets resolves the UPI payee and operator token. Local
// runs take them straight from the environment; prod keeps them in SSM
// Parameter Store so they never land in task definitions.
func getMerchantSecrets(ctx context.Context, env api.Environment, settings ServerSettings) (api.MerchantConfig, string, error) {
	if env == api.LOCAL {
		return api.MerchantConfig{
			VPA:  settings.MerchantVPA,
			Name: settings.MerchantName,
		}, settings.OperatorToken, nil
	}

	vpa, err := getParameterFromSSM(ctx, merchantVPAParamName)
	if err != nil {
		return api.MerchantConfig{}, "", err
	}

	operatorToken, err := getParameterFromSSM(ctx, operatorTokenParamName)
	if err != nil {
		return api.MerchantConfig{}, "", err
	}

	return api.MerchantConfig{
		VPA:  vpa,
		Name: settings.MerchantName,
	}, operatorToken, nil
}

func getParameterFromSSM(ctx context.Context, name string) (string, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get aws config: %w", err)
	}

	ssmClient := ssm.NewFromConfig(cfg)

	resp, err := ssmClient.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get SSM parameter %q: %w", name, err)
	}

	return *resp.Parameter.Value, nil
}
