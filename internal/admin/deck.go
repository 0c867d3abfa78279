package admin

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/dmitrijs2005/fundconnector/internal/common"
	"github.com/dmitrijs2005/fundconnector/internal/netx"
)

const deckContentType = "application/pdf"

var (
	readFile     = os.ReadFile
	putPresigned = netx.PutPresigned
)

// uploadDeck stores a PDF as the fund's deck through the same presigned URL
// flow the API hands to funds.
func (a *App) uploadDeck(ctx context.Context, email, path string) error {
	data, err := readFile(path)
	if err != nil {
		return fmt.Errorf("read deck: %w", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return fmt.Errorf("%w: %s is not a PDF", common.ErrorValidation, path)
	}

	acc, err := a.accounts.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("upload-deck %s: %w", email, err)
	}

	key, url, err := a.documents.DeckUploadURL(ctx, acc)
	if err != nil {
		return fmt.Errorf("upload-deck %s: %w", email, err)
	}
	if err := putPresigned(ctx, url, deckContentType, data); err != nil {
		return fmt.Errorf("upload-deck %s: %w", email, err)
	}

	fmt.Fprintf(a.out, "uploaded %d bytes to %s\n", len(data), key)
	return nil
}
