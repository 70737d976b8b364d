package app

// Command はcinelistのサブコマンド。
type Command string

const (
	// CommandServe はREST APIサーバー。引数なしの既定値。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションの定期削除ワーカー。
	CommandWorker Command = "worker"
	// CommandMigrate は埋め込みマイグレーションを適用して終了する。
	CommandMigrate Command = "migrate"
	// CommandHealthcheck はローカルの/healthを叩いて終了する。distrolessイメージのヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandBrowse はAPIクライアントとして一覧をページ単位で表示する。
	CommandBrowse Command = "browse"
)

var commands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandWorker):      CommandWorker,
	string(CommandMigrate):     CommandMigrate,
	string(CommandHealthcheck): CommandHealthcheck,
	string(CommandBrowse):      CommandBrowse,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 空または未知の場合はCommandServeを返す。2番目以降の引数は各コマンドに渡す。
func ParseCommand(args []string) Command {
	cmd, _ := lookupCommand(args)
	return cmd
}

// lookupCommand はParseCommandと同じ解釈を行い、未知のコマンドだった場合はfalseを返す。
func lookupCommand(args []string) (Command, bool) {
	if len(args) == 0 {
		return CommandServe, true
	}
	if cmd, ok := commands[args[0]]; ok {
		return cmd, true
	}
	return CommandServe, false
}
