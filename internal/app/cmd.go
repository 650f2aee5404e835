package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーとエンリッチメント処理を起動する。
	CommandServe Command = "serve"
	// CommandReport はシードデータを集計し、サマリーとディスクリプター統計をJSONで書き出す。
	CommandReport Command = "report"
	// CommandHealthcheck は起動中のサーバーの /health を叩く。distrolessイメージのHEALTHCHECK用。
	CommandHealthcheck Command = "healthcheck"
)

var knownCommands = map[string]Command{
	string(CommandServe):       CommandServe,
	string(CommandReport):      CommandReport,
	string(CommandHealthcheck): CommandHealthcheck,
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 引数なし、または未知の値はserveとみなす。2番目以降の引数は見ない。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	if cmd, ok := knownCommands[args[0]]; ok {
		return cmd
	}
	return CommandServe
}
