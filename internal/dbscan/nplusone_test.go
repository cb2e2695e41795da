package dbscan

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectInSource(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		source    string
		wantLines []int
	}{
		{
			name: "js for-of with awaited finder",
			file: "src/posts.ts",
			source: `for (const user of users) {
  const posts = await Post.findAll({ where: { userId: user.id } });
}
`,
			wantLines: []int{1},
		},
		{
			name: "js forEach with query",
			file: "src/jobs.js",
			source: `users.forEach(async (u) => {
  await db.query('SELECT 1');
});
`,
			wantLines: []int{1},
		},
		{
			name: "js brace on next line",
			file: "src/legacy.js",
			source: `for (let i = 0; i < ids.length; i++)
{
  const row = repo.findOne(ids[i]);
}
`,
			wantLines: []int{1},
		},
		{
			name: "js loop without queries",
			file: "src/log.js",
			source: `for (const u of users) {
  console.log(u.name);
}
const all = await User.findMany();
`,
		},
		{
			name: "python orm in loop",
			file: "app/orders.py",
			source: `def totals(orders):
    for order in orders:
        # one query per order
        items = Item.objects.filter(order=order)
    return items
`,
			wantLines: []int{2},
		},
		{
			name: "python query after loop",
			file: "app/report.py",
			source: `for row in rows:
    print(row)
data = session.query(Row).all()
`,
		},
		{
			name: "go range with QueryRow",
			file: "store/users.go",
			source: `package store

func load(db *sql.DB, ids []int) {
	for _, id := range ids {
		db.QueryRow("SELECT name FROM users WHERE id = $1", id)
	}
}
`,
			wantLines: []int{4},
		},
		{
			name: "go nested loops report the outer one",
			file: "store/grid.go",
			source: `package store

func grid(db *sql.DB) {
	for i := 0; i < 10; i++ {
		for j := 0; j < 10; j++ {
			db.ExecContext(ctx, "UPDATE cells SET v = 0")
		}
	}
}
`,
			wantLines: []int{4},
		},
		{
			name:   "go that does not parse",
			file:   "store/broken.go",
			source: "package store\n\nfunc {",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			findings := detectInSource(tt.file, []byte(tt.source))
			var lines []int
			for _, f := range findings {
				assert.Equal(t, SeverityHigh, f.Severity)
				assert.Equal(t, KindNPlusOne, f.Kind)
				assert.Equal(t, tt.file, f.File)
				assert.NotEmpty(t, f.Suggestion)
				lines = append(lines, f.Line)
			}
			assert.Equal(t, tt.wantLines, lines)
		})
	}
}

func TestDetectNPlusOne_Walk(t *testing.T) {
	root := t.TempDir()
	writeFiles(t, root, map[string]string{
		"b.py": "for a in accounts:\n    a.invoices = Invoice.objects.filter(account=a)\n",
		"a.go": "package a\n\nfunc f() {\n\tfor _, id := range ids {\n\t\tdb.Get(&u, q, id)\n\t}\n}\n",
		"c.rb": "users.each { |u| u.posts.where(x: 1) }\n",
	})

	findings, err := DetectNPlusOne(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, findings, 2)
	assert.Equal(t, "a.go:4", findings[0].Location())
	assert.Equal(t, "b.py:1", findings[1].Location())
	assert.Contains(t, findings[1].Message, "(line 2)")
	assert.Equal(t, []string{"for a in accounts:", "    a.invoices = Invoice.objects.filter(account=a)"}, findings[1].Context)
}
