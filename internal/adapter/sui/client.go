package sui

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/alfanzaky/proofanchor/config"
	"github.com/alfanzaky/proofanchor/internal/domain"
	"github.com/alfanzaky/proofanchor/pkg/logger"
	"github.com/alfanzaky/proofanchor/pkg/metrics"
	"github.com/block-vision/sui-go-sdk/models"
	suisdk "github.com/block-vision/sui-go-sdk/sui"
)

const (
	DefaultGasBudget uint64 = 50_000_000
	MinGasBudget     uint64 = 1_000_000
	MaxGasBudget     uint64 = 5_000_000_000

	objectChangeCreated = "created"
	requestTypeLocal    = "WaitForLocalExecution"
)

// chainAPI is the part of the Sui SDK the proof client needs.
type chainAPI interface {
	MoveCall(ctx context.Context, req models.MoveCallRequest) (models.TxnMetaData, error)
	SignAndExecuteTransactionBlock(ctx context.Context, req models.SignAndExecuteTransactionBlockRequest) (models.SuiTransactionBlockResponse, error)
}

// ProofClient anchors data hashes by calling
// <package>::<module>::<function>(hash: vector<u8>, created_at: u64) on Sui.
type ProofClient struct {
	cfg         config.SuiConfig
	api         chainAPI
	gasBudget   uint64
	proofSuffix string
}

var _ domain.ProofClient = (*ProofClient)(nil)

// NewProofClient creates a Sui proof client. A nil api connects to cfg.RPCURL.
func NewProofClient(cfg config.SuiConfig, api chainAPI) *ProofClient {
	if api == nil {
		api = suisdk.NewSuiClient(cfg.RPCURL)
	}

	return &ProofClient{
		cfg:         cfg,
		api:         api,
		gasBudget:   ClampGasBudget(cfg.GasBudget),
		proofSuffix: "::" + cfg.Module + "::Proof",
	}
}

// ClampGasBudget applies the default and bounds to a configured budget.
func ClampGasBudget(budget uint64) uint64 {
	if budget == 0 {
		return DefaultGasBudget
	}
	return min(max(budget, MinGasBudget), MaxGasBudget)
}

// CreateProof submits the proof transaction and returns its digest and the
// id of the created Proof object.
func (c *ProofClient) CreateProof(ctx context.Context, dataHashHex string, createdAtSeconds uint64) (*domain.ProofCreationResult, error) {
	start := time.Now()
	result, err := c.createProof(ctx, dataHashHex, createdAtSeconds)
	duration := time.Since(start)

	if err != nil {
		metrics.RecordProofRequest(domain.ProofChainSui, "error", string(domain.ProofErrorKindOf(err)), duration.Seconds())
		return nil, err
	}

	metrics.RecordProofRequest(domain.ProofChainSui, "success", "", duration.Seconds())
	logger.Info("Sui proof created",
		logger.String("tx_digest", result.TxDigest),
		logger.String("object_id", result.ObjectID),
		logger.Duration("duration", duration),
	)

	return result, nil
}

func (c *ProofClient) createProof(ctx context.Context, dataHashHex string, createdAtSeconds uint64) (*domain.ProofCreationResult, error) {
	if !domain.ValidDataHash(dataHashHex) {
		return nil, domain.NewProofError(domain.ProofErrorValidation, "validate hash", domain.ErrInvalidDataHash)
	}

	account, err := ResolveSigner(c.cfg.SignerSecret)
	if err != nil {
		return nil, domain.NewProofError(domain.ProofErrorSigner, "resolve signer", err)
	}

	hashBytes, err := hex.DecodeString(dataHashHex)
	if err != nil {
		return nil, domain.NewProofError(domain.ProofErrorValidation, "decode hash", err)
	}

	txn, err := c.api.MoveCall(ctx, models.MoveCallRequest{
		Signer:          account.Address,
		PackageObjectId: c.cfg.PackageID,
		Module:          c.cfg.Module,
		Function:        c.cfg.Function,
		TypeArguments:   []interface{}{},
		Arguments: []interface{}{
			byteVector(hashBytes),
			strconv.FormatUint(createdAtSeconds, 10),
		},
		GasBudget: strconv.FormatUint(c.gasBudget, 10),
	})
	if err != nil {
		return nil, domain.NewProofError(classify(err), "build transaction", err)
	}

	resp, err := c.api.SignAndExecuteTransactionBlock(ctx, models.SignAndExecuteTransactionBlockRequest{
		TxnMetaData: txn,
		PriKey:      account.PriKey,
		Options: models.SuiTransactionBlockOptions{
			ShowEffects:       true,
			ShowObjectChanges: true,
		},
		RequestType: requestTypeLocal,
	})
	if err != nil {
		return nil, domain.NewProofError(classify(err), "execute transaction", err)
	}

	if resp.Digest == "" {
		return nil, domain.NewProofError(domain.ProofErrorChain, "execute transaction", errors.New("response has no transaction digest"))
	}

	objectID, ok := c.findProofObject(resp.ObjectChanges)
	if !ok {
		return nil, domain.NewProofError(domain.ProofErrorIncompatible, "extract proof object",
			fmt.Errorf("transaction %s created no object of type *%s", resp.Digest, c.proofSuffix))
	}

	return &domain.ProofCreationResult{TxDigest: resp.Digest, ObjectID: objectID}, nil
}

func (c *ProofClient) findProofObject(changes []models.ObjectChange) (string, bool) {
	for _, change := range changes {
		if change.Type == objectChangeCreated && strings.HasSuffix(change.ObjectType, c.proofSuffix) && change.ObjectId != "" {
			return change.ObjectId, true
		}
	}
	return "", false
}

// byteVector renders bytes as a JSON number array, the form the RPC expects
// for vector<u8>.
func byteVector(b []byte) []int {
	out := make([]int, len(b))
	for i, v := range b {
		out[i] = int(v)
	}
	return out
}

// classify separates transport failures from chain rejections by error type.
func classify(err error) domain.ProofErrorKind {
	var netErr net.Error
	var urlErr *url.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		errors.As(err, &netErr) || errors.As(err, &urlErr) {
		return domain.ProofErrorNetwork
	}
	return domain.ProofErrorChain
}
