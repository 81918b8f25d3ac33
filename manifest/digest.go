package manifest

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/kisun-bit/drcarve/util/basic"
	"github.com/panjf2000/ants/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultCores = 4
	MaxCores     = 64
)

type digest struct {
	sum  uint64
	size int64
	err  error
}

type digestTask struct {
	idx  int
	path string
}

// digestAll 在 ants 协程池上并发计算文件哈希, 结果与 entries 下标一一对应.
func digestAll(ctx context.Context, l *zap.SugaredLogger, dir string, entries []*Entry, cores int) ([]digest, error) {
	if cores <= 0 || cores > MaxCores {
		cores = DefaultCores
	}
	results := make([]digest, len(entries))
	if len(entries) == 0 {
		return results, nil
	}

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(cores, func(i interface{}) {
		defer wg.Done()
		task := i.(digestTask)
		if basic.Cancelled(ctx) {
			results[task.idx].err = ctx.Err()
			return
		}
		sum, size, err := hashFile(task.path)
		if err != nil {
			l.Errorf("digestAll hashFile(%s) ERROR=%v", task.path, err)
		}
		results[task.idx] = digest{sum: sum, size: size, err: err}
	})
	if err != nil {
		return nil, errors.Wrap(err, "digestAll->NewPoolWithFunc(...)")
	}
	defer pool.Release()

	for i, e := range entries {
		wg.Add(1)
		if err = pool.Invoke(digestTask{idx: i, path: filepath.Join(dir, e.Name)}); err != nil {
			wg.Done()
			wg.Wait()
			return nil, errors.Wrapf(err, "digestAll->Invoke(...), file=%s", e.Name)
		}
	}
	wg.Wait()
	if err = ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func hashFile(path string) (sum uint64, size int64, err error) {
	fp, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		_ = fp.Close()
	}()
	h := xxhash.New()
	size, err = io.Copy(h, fp)
	if err != nil {
		return 0, 0, err
	}
	return h.Sum64(), size, nil
}
