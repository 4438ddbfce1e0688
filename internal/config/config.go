package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyLog                  = "log"
	KeyLogLevel             = "logLevel"
	KeyWikiURL              = "wikiURL"
	KeyDeviceAPIURL         = "deviceAPIURL"
	KeyCatalogFile          = "catalogFile"
	KeyCatalogStore         = "catalogStore"
	KeyCheckerPath          = "checkerPath"
	KeyCheckerTimeout       = "checkerTimeout"
	KeyScrapeWorkers        = "scrapeWorkers"
	KeyCorsAllowedOrigins   = "corsAllowedOrigins"
	KeyCorsAllowedHeaders   = "corsAllowedHeaders"
	KeyCorsAllowCredentials = "corsAllowCredentials"
	KeyAWSBucket            = "awsBucket"
	KeyAWSRegion            = "awsRegion"
	KeyAWSEndpoint          = "awsEndpoint"
	KeyAWSKey               = "awsKey"
	KeyAWSAccessKeyID       = "awsAccessKeyId"
	KeyAWSSecretAccessKey   = "awsSecretAccessKey"
	EnvPrefix               = "betacat"

	StoreTypeFile = "file"
	StoreTypeS3   = "s3"

	DefaultWikiURL        = "https://www.theiphonewiki.com"
	DefaultDeviceAPIURL   = "https://api.ipsw.me/v4/device"
	DefaultCheckerPath    = "tsschecker"
	DefaultCheckerTimeout = 30 * time.Second
	DefaultScrapeWorkers  = 4
)

var HomeDir string
var ConfigDir string

func InitConfig() {
	var err error
	HomeDir, err = os.UserHomeDir()
	if err != nil {
		panic(err)
	}
	ConfigDir = filepath.Join(HomeDir, ".betacat")
}

func InitViper() {
	viper.SetDefault(KeyLog, false)
	viper.SetDefault(KeyLogLevel, "INFO")
	viper.SetDefault(KeyWikiURL, DefaultWikiURL)
	viper.SetDefault(KeyDeviceAPIURL, DefaultDeviceAPIURL)
	viper.SetDefault(KeyCatalogFile, filepath.Join(ConfigDir, "betas.json"))
	viper.SetDefault(KeyCatalogStore, StoreTypeFile)
	viper.SetDefault(KeyCheckerPath, DefaultCheckerPath)
	viper.SetDefault(KeyCheckerTimeout, DefaultCheckerTimeout)
	viper.SetDefault(KeyScrapeWorkers, DefaultScrapeWorkers)
	viper.SetDefault(KeyAWSKey, "betas.json")

	viper.SetConfigType("json")
	viper.SetConfigName("config")
	viper.AddConfigPath(ConfigDir)
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; do nothing and rely on defaults
		} else {
			panic("cannot read config: " + err.Error())
		}
	}
	// set prefix "betacat" for environment variables
	// the environment variables then have to match pattern "betacat_<viper variable>", lower or uppercase
	viper.SetEnvPrefix(EnvPrefix)

	_ = viper.BindEnv(KeyLog)                  // env variable name = BETACAT_LOG
	_ = viper.BindEnv(KeyLogLevel)             // env variable name = BETACAT_LOGLEVEL
	_ = viper.BindEnv(KeyWikiURL)              // env variable name = BETACAT_WIKIURL
	_ = viper.BindEnv(KeyDeviceAPIURL)         // env variable name = BETACAT_DEVICEAPIURL
	_ = viper.BindEnv(KeyCatalogFile)          // env variable name = BETACAT_CATALOGFILE
	_ = viper.BindEnv(KeyCatalogStore)         // env variable name = BETACAT_CATALOGSTORE
	_ = viper.BindEnv(KeyCheckerPath)          // env variable name = BETACAT_CHECKERPATH
	_ = viper.BindEnv(KeyCheckerTimeout)       // env variable name = BETACAT_CHECKERTIMEOUT
	_ = viper.BindEnv(KeyScrapeWorkers)        // env variable name = BETACAT_SCRAPEWORKERS
	_ = viper.BindEnv(KeyCorsAllowedOrigins)   // env variable name = BETACAT_CORSALLOWEDORIGINS
	_ = viper.BindEnv(KeyCorsAllowedHeaders)   // env variable name = BETACAT_CORSALLOWEDHEADERS
	_ = viper.BindEnv(KeyCorsAllowCredentials) // env variable name = BETACAT_CORSALLOWCREDENTIALS
	_ = viper.BindEnv(KeyAWSBucket)            // env variable name = BETACAT_AWSBUCKET
	_ = viper.BindEnv(KeyAWSKey)               // env variable name = BETACAT_AWSKEY
	_ = viper.BindEnv(KeyAWSRegion)            // env variable name = BETACAT_AWSREGION
	_ = viper.BindEnv(KeyAWSEndpoint)          // env variable name = BETACAT_AWSENDPOINT
	_ = viper.BindEnv(KeyAWSAccessKeyID)       // env variable name = BETACAT_AWSACCESSKEYID
	_ = viper.BindEnv(KeyAWSSecretAccessKey)   // env variable name = BETACAT_AWSSECRETACCESSKEY
}
