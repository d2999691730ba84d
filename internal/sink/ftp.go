package sink

import (
	"bytes"
	"context"
	"net"
	"path"
	"time"

	"github.com/jlaffaye/ftp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/property-research-cli/internal/model"
)

// FTPOptions configures the FTP drop sink.
type FTPOptions struct {
	Host     string `yaml:"host" mapstructure:"host"`
	User     string `yaml:"user" mapstructure:"user"`
	Password string `yaml:"password" mapstructure:"password"`
	Dir      string `yaml:"dir" mapstructure:"dir"`
	Timeout  time.Duration
}

// FTPSink uploads the record's workbook to an FTP drop directory. A fresh
// connection is dialed per write; research runs are minutes apart, not
// milliseconds.
type FTPSink struct {
	opts FTPOptions
}

// NewFTP creates an FTP sink.
func NewFTP(opts FTPOptions) *FTPSink {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.User == "" {
		opts.User = "anonymous"
		opts.Password = "anonymous@"
	}
	return &FTPSink{opts: opts}
}

func (s *FTPSink) Name() string { return "ftp" }

func (s *FTPSink) Write(ctx context.Context, rec *model.ResearchRecord) error {
	f, err := BuildWorkbook(rec)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return eris.Wrap(err, "ftp: render workbook")
	}

	host := s.opts.Host
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "21")
	}

	zap.L().Debug("ftp: connecting", zap.String("host", host))
	conn, err := ftp.Dial(host, ftp.DialWithTimeout(s.opts.Timeout), ftp.DialWithContext(ctx))
	if err != nil {
		return eris.Wrap(err, "ftp: dial")
	}
	defer conn.Quit()

	if err := conn.Login(s.opts.User, s.opts.Password); err != nil {
		return eris.Wrap(err, "ftp: login")
	}

	remote := path.Join(s.opts.Dir, workbookFileName(rec.Address))
	if err := conn.Stor(remote, &buf); err != nil {
		return eris.Wrapf(err, "ftp: store %s", remote)
	}
	return nil
}
