package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/Rhymond/go-money"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/team-welcome/dandiya-registration/api"
	"github.com/team-welcome/dandiya-registration/dynamo"
)

func main() {
	ctx := context.Background()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	settings := getServerSettingsFromEnv()

	env, err := api.ParseEnvironment(settings.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid ENV setting: %s\n", err)
		os.Exit(1)
	}

	dynamoClient, err := createDynamoClient(ctx, env, settings.DynamoEndpoint)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create dynamo client: %s\n", err)
		os.Exit(1)
	}
	db := dynamo.NewDB(dynamoClient, settings.TableName)

	emailSender, err := createEmailSender(ctx, logger, env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create email sender: %s\n", err)
		os.Exit(1)
	}

	merchant, operatorToken, err := getMerchantSecrets(ctx, env, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load merchant config: %s\n", err)
		os.Exit(1)
	}

	unitPrice := money.New(int64(settings.TicketPriceRupees)*100, money.INR)

	paymentAPI := api.NewAPI(db, logger, env, emailSender, merchant, unitPrice, operatorToken)

	s := &http.Server{
		Handler: paymentAPI.Handler(),
		Addr:    net.JoinHostPort(settings.Host, settings.Port),
	}

	logger.Info("Server listening",
		slog.String("addr", s.Addr),
		slog.String("env", string(env)),
	)

	log.Fatal(s.ListenAndServe())
}

func createDynamoClient(ctx context.Context, env api.Environment, localEndpoint string) (*dynamodb.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get aws config: %w", err)
	}

	if env == api.LOCAL {
		return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(localEndpoint)
		}), nil
	}

	return dynamodb.NewFromConfig(cfg), nil
}

type ServerSettings struct {
	Host              string
	Port              string
	Env               string
	TableName         string
	DynamoEndpoint    string
	TicketPriceRupees int
	MerchantVPA       string
	MerchantName      string
	OperatorToken     string
}

func getServerSettingsFromEnv() ServerSettings {
	return ServerSettings{
		Host:              getEnvOrDefault("HOST", "0.0.0.0"),
		Port:              getEnvOrDefault("PORT", "8080"),
		Env:               getEnvOrDefault("ENV", "local"),
		TableName:         getEnvOrDefault("TABLE_NAME", "DandiyaRegistration"),
		DynamoEndpoint:    getEnvOrDefault("DYNAMO_ENDPOINT", "http://localhost:8000"),
		TicketPriceRupees: getEnvIntOrDefault("TICKET_PRICE_RUPEES", 499),
		MerchantVPA:       getEnvOrDefault("MERCHANT_VPA", "teamwelcome@upi"),
		MerchantName:      getEnvOrDefault("MERCHANT_NAME", "Team Welcome"),
		OperatorToken:     getEnvOrDefault("OPERATOR_TOKEN", ""),
	}
}

func getEnvOrDefault(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}

	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	v, ok := os.LookupEnv(key)
	if !ok {
		return defaultVal
	}

	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}

	return i
}
