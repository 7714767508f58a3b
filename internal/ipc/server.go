package ipc

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nivram913/fuse-digiposte/internal/logging"
	"github.com/nivram913/fuse-digiposte/internal/services"
	"github.com/nivram913/fuse-digiposte/internal/services/digiposte"
)

var errArguments = errors.New("wrong argument count")

// Server answers pipe commands by calling the Digiposte API. Commands are
// served one at a time in arrival order.
type Server struct {
	api      API
	logger   *slog.Logger
	handlers map[string]handler
}

type handler struct {
	args int
	run  func(ctx context.Context, args []string) (string, error)
}

// NewServer builds a dispatcher over api.
func NewServer(api API, logger *slog.Logger) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Server{api: api, logger: logger}
	s.handlers = map[string]handler{
		ActionGetFoldersTree:   {0, s.getFoldersTree},
		ActionGetFolderContent: {1, s.getFolderContent},
		ActionGetFile:          {2, s.getFile},
		ActionCreateFolder:     {2, s.createFolder},
		ActionRenameObject:     {3, s.renameObject},
		ActionDeleteObject:     {2, s.deleteObject},
		ActionMoveObject:       {3, s.moveObject},
		ActionUploadFile:       {4, s.uploadFile},
	}
	return s
}

func (s *Server) log() *slog.Logger {
	return s.logger.With(logging.String(logging.FieldComponent, "ipc"))
}

// Serve writes the ready sentinel, then reads newline-terminated records from
// r and writes one NUL-terminated reply per record to w. It returns nil once
// r reaches EOF. A failed write ends the loop with an error. Cancelling ctx
// returns ctx.Err() even while a read is pending.
func (s *Server) Serve(ctx context.Context, r io.Reader, w io.Writer) error {
	if err := writeReply(w, ReplyReady); err != nil {
		return err
	}
	s.log().Debug("pipe server ready")

	stop := make(chan struct{})
	defer close(stop)
	records := readRecords(r, stop)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		var next readResult
		select {
		case <-ctx.Done():
			return ctx.Err()
		case next = <-records:
		}

		if len(next.line) > 0 {
			record := bytes.TrimSuffix(next.line, []byte{recordSeparator})
			if err := writeReply(w, s.Handle(ctx, record)); err != nil {
				return err
			}
		}
		if next.err != nil {
			if errors.Is(next.err, io.EOF) {
				s.log().Debug("pipe closed by client")
				return nil
			}
			return fmt.Errorf("read command: %w", next.err)
		}
	}
}

type readResult struct {
	line []byte
	err  error
}

// readRecords reads one record ahead of the dispatcher. A read still blocked
// when stop is closed ends once the descriptor is closed or the process exits.
func readRecords(r io.Reader, stop <-chan struct{}) <-chan readResult {
	out := make(chan readResult)
	go func() {
		reader := bufio.NewReader(r)
		for {
			line, err := reader.ReadBytes(recordSeparator)
			select {
			case out <- readResult{line: line, err: err}:
			case <-stop:
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// Handle dispatches one record (without its trailing newline) and returns the
// reply payload.
func (s *Server) Handle(ctx context.Context, record []byte) string {
	fields := strings.Split(string(record), string(fieldSeparator))
	action, args := fields[0], fields[1:]

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithAction(ctx, action)
	logger := logging.WithContext(ctx, s.log())

	h, ok := s.handlers[action]
	if !ok {
		logging.WarnWithContext(logger, "unknown pipe command", "pipe_unknown_action",
			logging.Int("arg_count", len(args)),
			logging.String(logging.FieldImpact, "command rejected"),
			logging.String(logging.FieldErrorHint, "check the action name sent by the driving process"))
		return ReplyErr
	}
	if len(args) != h.args {
		logging.WarnWithContext(logger, "pipe command rejected", "pipe_bad_arguments",
			logging.Int("arg_count", len(args)),
			logging.Int("expected", h.args),
			logging.Error(errArguments),
			logging.String(logging.FieldImpact, "command rejected"),
			logging.String(logging.FieldErrorHint, "check the argument order for this action"))
		return ReplyErr
	}

	started := time.Now()
	reply, err := h.run(ctx, args)
	if err != nil {
		logging.WarnWithContext(logger, "pipe command failed", "pipe_command_failed",
			logging.Error(err),
			logging.Duration("duration", time.Since(started)),
			logging.String(logging.FieldImpact, "driving process received err"),
			logging.String(logging.FieldErrorHint, services.Hint(err)))
		return ReplyErr
	}
	logger.Debug("pipe command served", logging.Duration("duration", time.Since(started)))
	return reply
}

func (s *Server) getFoldersTree(ctx context.Context, _ []string) (string, error) {
	body, err := s.api.FoldersTree(ctx)
	return string(body), err
}

func (s *Server) getFolderContent(ctx context.Context, args []string) (string, error) {
	body, err := s.api.FolderContent(ctx, args[0])
	return string(body), err
}

func (s *Server) getFile(ctx context.Context, args []string) (string, error) {
	if err := s.api.DownloadFile(ctx, args[0], args[1]); err != nil {
		return "", err
	}
	return ReplyOK, nil
}

func (s *Server) createFolder(ctx context.Context, args []string) (string, error) {
	return s.api.CreateFolder(ctx, args[0], args[1])
}

func (s *Server) renameObject(ctx context.Context, args []string) (string, error) {
	if err := s.api.RenameObject(ctx, kindFromFlag(args[0]), args[1], args[2]); err != nil {
		return "", err
	}
	return ReplyOK, nil
}

func (s *Server) deleteObject(ctx context.Context, args []string) (string, error) {
	if err := s.api.DeleteObject(ctx, kindFromFlag(args[0]), args[1]); err != nil {
		return "", err
	}
	return ReplyOK, nil
}

func (s *Server) moveObject(ctx context.Context, args []string) (string, error) {
	if err := s.api.MoveObject(ctx, kindFromFlag(args[0]), args[1], args[2]); err != nil {
		return "", err
	}
	return ReplyOK, nil
}

func (s *Server) uploadFile(ctx context.Context, args []string) (string, error) {
	size, err := strconv.ParseInt(args[3], 10, 64)
	if err != nil || size < 0 {
		return "", services.Wrap(services.ErrValidation, "ipc", ActionUploadFile, "invalid size "+strconv.Quote(args[3]), err)
	}
	return s.api.UploadFile(ctx, digiposte.Upload{
		FolderID: args[0],
		Path:     args[1],
		Name:     args[2],
		Size:     size,
	})
}

func writeReply(w io.Writer, reply string) error {
	buf := make([]byte, 0, len(reply)+1)
	buf = append(buf, reply...)
	buf = append(buf, fieldSeparator)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write reply: %w", err)
	}
	return nil
}
