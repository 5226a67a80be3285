package cloud

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker/types"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/mlopsbox/dmpipe/pkg/errors"
	"github.com/mlopsbox/dmpipe/pkg/log"
)

// DefaultPredictBatchSize bounds the rows per InvokeEndpoint request; the
// endpoint rejects oversized CSV payloads.
const DefaultPredictBatchSize = 500

// hostingAPI covers the endpoint-lifecycle calls Host uses.
type hostingAPI interface {
	CreateModel(ctx context.Context, input *sagemaker.CreateModelInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateModelOutput, error)
	CreateEndpointConfig(ctx context.Context, input *sagemaker.CreateEndpointConfigInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointConfigOutput, error)
	CreateEndpoint(ctx context.Context, input *sagemaker.CreateEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.CreateEndpointOutput, error)
	DescribeEndpoint(ctx context.Context, input *sagemaker.DescribeEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.DescribeEndpointOutput, error)
	DeleteEndpoint(ctx context.Context, input *sagemaker.DeleteEndpointInput, opts ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointOutput, error)
	DeleteEndpointConfig(ctx context.Context, input *sagemaker.DeleteEndpointConfigInput, opts ...func(*sagemaker.Options)) (*sagemaker.DeleteEndpointConfigOutput, error)
	DeleteModel(ctx context.Context, input *sagemaker.DeleteModelInput, opts ...func(*sagemaker.Options)) (*sagemaker.DeleteModelOutput, error)
}

// runtimeAPI covers the inference call Host uses.
type runtimeAPI interface {
	InvokeEndpoint(ctx context.Context, input *sagemakerruntime.InvokeEndpointInput, opts ...func(*sagemakerruntime.Options)) (*sagemakerruntime.InvokeEndpointOutput, error)
}

// DeploySpec describes a hosted endpoint for a trained model.
type DeploySpec struct {
	BaseName       string
	Image          string
	RoleARN        string
	ModelArtifacts string
	InstanceType   string
	InstanceCount  int32
}

// Deployment names the resources created for one hosted endpoint. All
// three must be deleted on teardown.
type Deployment struct {
	ModelName          string
	EndpointConfigName string
	EndpointName       string
}

// Host manages endpoint lifecycle and inference.
type Host struct {
	api     hostingAPI
	runtime runtimeAPI
	poll    time.Duration
	logger  *slog.Logger
}

// NewHost creates a Host over the SageMaker and runtime clients.
func NewHost(api hostingAPI, runtime runtimeAPI) *Host {
	return &Host{
		api:     api,
		runtime: runtime,
		poll:    defaultPollInterval,
		logger:  slog.Default().With(log.PhaseKey, "deploy"),
	}
}

// Deploy creates the model, endpoint config and endpoint, then blocks
// until the endpoint is in service.
func (h *Host) Deploy(ctx context.Context, spec DeploySpec) (*Deployment, error) {
	d := &Deployment{
		ModelName:          uniqueName(spec.BaseName + "-model"),
		EndpointConfigName: uniqueName(spec.BaseName + "-config"),
		EndpointName:       uniqueName(spec.BaseName),
	}

	_, err := h.api.CreateModel(ctx, &sagemaker.CreateModelInput{
		ModelName:        aws.String(d.ModelName),
		ExecutionRoleArn: aws.String(spec.RoleARN),
		PrimaryContainer: &types.ContainerDefinition{
			Image:        aws.String(spec.Image),
			ModelDataUrl: aws.String(spec.ModelArtifacts),
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cloud: create model %s", d.ModelName)
	}

	_, err = h.api.CreateEndpointConfig(ctx, &sagemaker.CreateEndpointConfigInput{
		EndpointConfigName: aws.String(d.EndpointConfigName),
		ProductionVariants: []types.ProductionVariant{
			{
				VariantName:          aws.String("AllTraffic"),
				ModelName:            aws.String(d.ModelName),
				InstanceType:         types.ProductionVariantInstanceType(spec.InstanceType),
				InitialInstanceCount: aws.Int32(spec.InstanceCount),
			},
		},
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cloud: create endpoint config %s", d.EndpointConfigName)
	}

	_, err = h.api.CreateEndpoint(ctx, &sagemaker.CreateEndpointInput{
		EndpointName:       aws.String(d.EndpointName),
		EndpointConfigName: aws.String(d.EndpointConfigName),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "cloud: create endpoint %s", d.EndpointName)
	}
	h.logger.Info("endpoint creation started", log.EndpointKey, d.EndpointName)

	if err := h.waitInService(ctx, d.EndpointName); err != nil {
		return nil, err
	}
	h.logger.Info("endpoint in service", log.EndpointKey, d.EndpointName)
	return d, nil
}

func (h *Host) waitInService(ctx context.Context, endpointName string) error {
	ticker := time.NewTicker(h.poll)
	defer ticker.Stop()

	for {
		out, err := h.api.DescribeEndpoint(ctx, &sagemaker.DescribeEndpointInput{
			EndpointName: aws.String(endpointName),
		})
		if err != nil {
			return errors.Wrapf(err, "cloud: describe endpoint %s", endpointName)
		}

		switch out.EndpointStatus {
		case types.EndpointStatusInService:
			return nil
		case types.EndpointStatusFailed:
			return errors.NewJobError(endpointName, string(out.EndpointStatus), aws.ToString(out.FailureReason))
		}
		h.logger.Debug("endpoint not ready",
			log.EndpointKey, endpointName,
			log.JobStatusKey, string(out.EndpointStatus),
		)

		select {
		case <-ctx.Done():
			return errors.Wrapf(ctx.Err(), "cloud: waiting for endpoint %s", endpointName)
		case <-ticker.C:
		}
	}
}

// Predict streams feature rows to the endpoint as CSV in bounded batches
// and returns one score per row.
func (h *Host) Predict(ctx context.Context, endpointName string, rows [][]string, batchSize int) ([]float64, error) {
	if batchSize <= 0 {
		batchSize = DefaultPredictBatchSize
	}
	scores := make([]float64, 0, len(rows))

	for start := 0; start < len(rows); start += batchSize {
		end := start + batchSize
		if end > len(rows) {
			end = len(rows)
		}

		var body strings.Builder
		for _, row := range rows[start:end] {
			body.WriteString(strings.Join(row, ","))
			body.WriteByte('\n')
		}

		out, err := h.runtime.InvokeEndpoint(ctx, &sagemakerruntime.InvokeEndpointInput{
			EndpointName: aws.String(endpointName),
			ContentType:  aws.String("text/csv"),
			Body:         []byte(body.String()),
		})
		if err != nil {
			return nil, errors.Wrapf(err, "cloud: invoke endpoint %s", endpointName)
		}

		batch, err := parseCSVScores(out.Body)
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, errors.NewDimensionError("Host.Predict", end-start, len(batch), 0)
		}
		scores = append(scores, batch...)
	}
	return scores, nil
}

// parseCSVScores accepts the endpoint's CSV body: scores separated by
// commas, newlines or both.
func parseCSVScores(body []byte) ([]float64, error) {
	fields := strings.FieldsFunc(string(body), func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r'
	})
	scores := make([]float64, 0, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "cloud: parse prediction %q", field)
		}
		scores = append(scores, v)
	}
	return scores, nil
}

// Teardown deletes the endpoint, its config and the model. The first
// failure aborts; remaining resources must be removed by a retry.
func (h *Host) Teardown(ctx context.Context, d Deployment) error {
	_, err := h.api.DeleteEndpoint(ctx, &sagemaker.DeleteEndpointInput{
		EndpointName: aws.String(d.EndpointName),
	})
	if err != nil {
		return errors.Wrapf(err, "cloud: delete endpoint %s", d.EndpointName)
	}
	_, err = h.api.DeleteEndpointConfig(ctx, &sagemaker.DeleteEndpointConfigInput{
		EndpointConfigName: aws.String(d.EndpointConfigName),
	})
	if err != nil {
		return errors.Wrapf(err, "cloud: delete endpoint config %s", d.EndpointConfigName)
	}
	_, err = h.api.DeleteModel(ctx, &sagemaker.DeleteModelInput{
		ModelName: aws.String(d.ModelName),
	})
	if err != nil {
		return errors.Wrapf(err, "cloud: delete model %s", d.ModelName)
	}
	h.logger.Info("deployment removed", log.EndpointKey, d.EndpointName)
	return nil
}
