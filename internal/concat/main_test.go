// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConcat - 无损媒体拼接工具

package concat

import (
	"os"
	"testing"

	"github.com/ZSC714725/mediaconcat/internal/testsupport"
)

func TestMain(m *testing.M) {
	testsupport.MaybeRunFakeFFmpeg()
	os.Exit(m.Run())
}
